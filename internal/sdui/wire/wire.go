package wire

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lk2023060901/sdui-garden-go/internal/json"
)

// 线上格式使用的字段名。
const (
	FieldTagName  = "tagName"
	FieldTagAlias = "tag" // 历史别名，仅在解析时接受
	FieldVersion  = "version"
	FieldData     = "data"
	FieldChildren = "children"
)

// fallback 封套使用的约定常量。
// 这些值是跨实现的兼容性契约，不允许改动。
const (
	FallbackTag      = "__react_node__"
	FallbackVersion  = "1.0.0"
	FallbackDataType = "react-element"

	FieldType        = "type"
	FieldElementType = "elementType"
	FieldProps       = "props"
)

// Kind 标识 Value 当前承载的具体分支。
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindComponent
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindBool:      "bool",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindComponent: "component",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value 是线上格式节点的显式 tagged union。
//
// 设计说明：
//   - 不做“对象上碰巧有 tagName 字段”这类结构探测式分发，
//     解析阶段就把每个 JSON 值归入唯一分支，下游一律对 Kind 做穷举 switch；
//   - 数字以原始字面量（json.Number）承载，整数往返不丢精度；
//   - Value 是一次性构造的纯数据，跨 serialize/deserialize 调用不保留任何身份。
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
	comp *Component
}

// Component 为已识别组件节点的线上封套。
//
// Data 为 nil 表示封套中缺少 data 字段（或 data 不是对象）；
// 这一“存在性”信息由解码阶段用来区分合法空数据与缺失数据。
type Component struct {
	TagName string
	Version string
	Data    map[string]Value
}

// HasData 返回封套是否携带了结构上合法的 data 字段。
func (c *Component) HasData() bool {
	return c != nil && c.Data != nil
}

// Null 构造 null 分支的 Value。Value 的零值等价于 Null()。
func Null() Value {
	return Value{kind: KindNull}
}

// Bool 构造布尔分支的 Value。
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int 构造整数数字分支的 Value。
func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Float 构造浮点数字分支的 Value。
// NaN 与 Inf 无法在 JSON 中表示，调用方必须在更早阶段拦截。
func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Number 以原始字面量构造数字分支的 Value。
func Number(n json.Number) Value {
	return Value{kind: KindNumber, num: n}
}

// String 构造字符串分支的 Value。
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Array 构造数组分支的 Value，元素顺序保留。
func Array(items []Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Object 构造普通对象分支的 Value。
// 注意：携带 tagName 的对象不应走这里，而应使用 Comp。
func Object(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}

// Comp 构造组件分支的 Value。
func Comp(c *Component) Value {
	return Value{kind: KindComponent, comp: c}
}

// Kind 返回当前分支。
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull 返回当前分支是否为 null。
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool 返回布尔分支的值。仅当 Kind() == KindBool 时有意义。
func (v Value) Bool() bool {
	return v.b
}

// Number 返回数字分支的原始字面量。仅当 Kind() == KindNumber 时有意义。
func (v Value) Number() json.Number {
	return v.num
}

// Str 返回字符串分支的值。仅当 Kind() == KindString 时有意义。
func (v Value) Str() string {
	return v.str
}

// Items 返回数组分支的元素。仅当 Kind() == KindArray 时有意义。
func (v Value) Items() []Value {
	return v.arr
}

// Fields 返回对象分支的字段。仅当 Kind() == KindObject 时有意义。
func (v Value) Fields() map[string]Value {
	return v.obj
}

// Component 返回组件分支的封套。仅当 Kind() == KindComponent 时有意义。
func (v Value) Component() *Component {
	return v.comp
}

// Marshal 将 Value 序列化为线上文本。
func Marshal(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// Parse 将线上文本解析为 Value。
// 文本不是合法 JSON 时返回错误，解析不产生部分结果。
func Parse(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("wire: empty document")
	}
	var v Value
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// MarshalJSON 实现 json.Marshaler，对分支做穷举。
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	case KindComponent:
		return json.Marshal(v.comp)
	default:
		return nil, fmt.Errorf("wire: unknown value kind %s", v.kind)
	}
}

// UnmarshalJSON 实现 json.Unmarshaler。
// JSON 值按首字符归入唯一分支；携带字符串类型 tagName/tag 字段的对象归入组件分支。
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("wire: empty value")
	}

	switch trimmed[0] {
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("wire: invalid literal %q", string(trimmed))
		}
		*v = Null()
		return nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil

	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil

	case '[':
		items := make([]Value, 0)
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*v = Array(items)
		return nil

	case '{':
		return v.unmarshalObject(trimmed)

	default:
		if !json.Valid(trimmed) {
			return fmt.Errorf("wire: invalid literal %q", string(trimmed))
		}
		*v = Number(json.Number(trimmed))
		return nil
	}
}

func (v *Value) unmarshalObject(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	tagRaw, ok := raw[FieldTagName]
	if !ok {
		tagRaw, ok = raw[FieldTagAlias]
	}

	// tagName 必须是字符串才构成组件封套，否则按普通对象处理。
	var tag string
	if ok {
		if err := json.Unmarshal(tagRaw, &tag); err != nil {
			ok = false
		}
	}
	if !ok {
		fields := make(map[string]Value, len(raw))
		for key, rawValue := range raw {
			var field Value
			if err := json.Unmarshal(rawValue, &field); err != nil {
				return err
			}
			fields[key] = field
		}
		*v = Object(fields)
		return nil
	}

	comp := &Component{TagName: tag}
	if versionRaw, exists := raw[FieldVersion]; exists {
		// version 非字符串时按缺省处理，不让单个坏字段拖垮解析。
		var version string
		if err := json.Unmarshal(versionRaw, &version); err == nil {
			comp.Version = version
		}
	}
	if dataRaw, exists := raw[FieldData]; exists {
		dataTrimmed := bytes.TrimSpace(dataRaw)
		if len(dataTrimmed) > 0 && dataTrimmed[0] == '{' {
			dataFields := make(map[string]Value)
			if err := json.Unmarshal(dataTrimmed, &dataFields); err != nil {
				return err
			}
			comp.Data = dataFields
		}
	}
	*v = Comp(comp)
	return nil
}

// MarshalJSON 实现 json.Marshaler，封套字段顺序固定为 tagName、version、data。
func (c *Component) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"tagName":`)
	tagJSON, err := json.Marshal(c.TagName)
	if err != nil {
		return nil, err
	}
	buf.Write(tagJSON)

	buf.WriteString(`,"version":`)
	versionJSON, err := json.Marshal(c.Version)
	if err != nil {
		return nil, err
	}
	buf.Write(versionJSON)

	buf.WriteString(`,"data":`)
	if c.Data == nil {
		buf.WriteString("{}")
	} else {
		dataJSON, err := json.Marshal(c.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(dataJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
