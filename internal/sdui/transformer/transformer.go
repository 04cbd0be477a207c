package transformer

import (
	"fmt"
	"io"
	"math"

	"github.com/lk2023060901/sdui-garden-go/internal/json"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/compressor"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/registry"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/wire"
	"github.com/lk2023060901/sdui-garden-go/pkg/metrics"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

const (
	// defaultMaxDepth 为常规编解码允许的最大嵌套深度，
	// 同时也是对环状输入的兜底保护。
	defaultMaxDepth = 512

	// defaultMaxFallbackDepth 为 fallback 快照允许的最大嵌套深度。
	// 未注册节点的属性包形状不可控，这里的上限比常规路径严格得多。
	defaultMaxFallbackDepth = 32

	// defaultMaxFallbackFields 为 fallback 快照单层允许的最大字段/元素数。
	defaultMaxFallbackFields = 256
)

// Options 用于构造 Transformer 的依赖注入参数。
type Options struct {
	// Registry 为必填的节点类型注册表。
	Registry *registry.Registry

	// MaxDepth 为常规编解码的递归深度上限，<= 0 时使用默认值。
	MaxDepth int

	// MaxFallbackDepth 为 fallback 快照的递归深度上限，<= 0 时使用默认值。
	MaxFallbackDepth int

	// MaxFallbackFields 为 fallback 快照单层字段数上限，<= 0 时使用默认值。
	MaxFallbackFields int

	// Compressor 供 SerializeCompressed/DeserializeCompressed 使用，
	// 允许为 nil（内部会用 NopCompressor）。
	Compressor compressor.Compressor
}

// Transformer 是编解码的入口。
//
// Pipeline（编码 Serialize）：
//   live tree --> encodeValue --> wire.Value --> wire.Marshal --> 文本
//
// Pipeline（解码 Deserialize）：
//   文本 --> wire.Parse --> wire.Value --> decodeValue --> live tree
//
// Serialize/Deserialize 是 (输入值, 注册表快照) 的纯函数，不持有跨调用状态；
// 同一个 Transformer 可被并发使用。
type Transformer struct {
	reg *registry.Registry

	maxDepth          int
	maxFallbackDepth  int
	maxFallbackFields int

	comp compressor.Compressor
}

// New 创建一个基于给定依赖的 Transformer。
func New(opts Options) (*Transformer, error) {
	if opts.Registry == nil {
		return nil, merr.WrapErrParameterMissing("registry")
	}

	t := &Transformer{
		reg:               opts.Registry,
		maxDepth:          opts.MaxDepth,
		maxFallbackDepth:  opts.MaxFallbackDepth,
		maxFallbackFields: opts.MaxFallbackFields,
		comp:              opts.Compressor,
	}
	if t.maxDepth <= 0 {
		t.maxDepth = defaultMaxDepth
	}
	if t.maxFallbackDepth <= 0 {
		t.maxFallbackDepth = defaultMaxFallbackDepth
	}
	if t.maxFallbackFields <= 0 {
		t.maxFallbackFields = defaultMaxFallbackFields
	}
	if t.comp == nil {
		t.comp = compressor.NopCompressor{}
	}
	return t, nil
}

// Serialize 将任意活动值编码为线上文本。
func (t *Transformer) Serialize(v any) (string, error) {
	out, err := t.SerializeToBytes(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SerializeToBytes 实现 Serialize 的字节形式。
func (t *Transformer) SerializeToBytes(v any) ([]byte, error) {
	value, err := t.encodeValue(v, 0)
	if err != nil {
		metrics.SerializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, err
	}

	out, err := wire.Marshal(value)
	if err != nil {
		metrics.SerializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, merr.WrapErrValueNotEncodable(fmt.Sprintf("%T", v), err)
	}

	metrics.SerializeTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.DocumentBytes.Observe(float64(len(out)))
	return out, nil
}

// SerializeCompressed 编码并压缩文档，供入库/传输前使用。
func (t *Transformer) SerializeCompressed(v any) ([]byte, error) {
	out, err := t.SerializeToBytes(v)
	if err != nil {
		return nil, err
	}
	packet, err := t.comp.Compress(nil, out)
	if err != nil {
		return nil, merr.WrapErrCompressionFailed(err)
	}
	return packet, nil
}

// Deserialize 将线上文本解码回活动树/基础值/数组。
func (t *Transformer) Deserialize(text string) (any, error) {
	return t.DeserializeBytes([]byte(text))
}

// DeserializeBytes 实现 Deserialize 的字节形式。
func (t *Transformer) DeserializeBytes(data []byte) (any, error) {
	value, err := wire.Parse(data)
	if err != nil {
		metrics.DeserializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, merr.WrapErrDocumentInvalidFormat(err)
	}

	out, err := t.decodeValue(value, 0)
	if err != nil {
		metrics.DeserializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, err
	}
	metrics.DeserializeTotal.WithLabelValues(metrics.StatusOK).Inc()
	return out, nil
}

// DeserializeReader 从流中读取单个文档并解码，适用于直接消费请求体的场景。
func (t *Transformer) DeserializeReader(r io.Reader) (any, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		metrics.DeserializeTotal.WithLabelValues(metrics.StatusFail).Inc()
		return nil, merr.WrapErrDocumentInvalidFormat(err)
	}
	return t.DeserializeBytes(raw)
}

// DeserializeCompressed 解压并解码 SerializeCompressed 的输出。
func (t *Transformer) DeserializeCompressed(packet []byte) (any, error) {
	plain, err := t.comp.Decompress(nil, packet)
	if err != nil {
		return nil, merr.WrapErrDecompressionFailed(err)
	}
	return t.DeserializeBytes(plain)
}

// valueEncoder/valueDecoder 把当前递归深度带进策略 Codec 的回调里。
type valueEncoder struct {
	t     *Transformer
	depth int
}

func (e valueEncoder) EncodeValue(v any) (wire.Value, error) {
	return e.t.encodeValue(v, e.depth+1)
}

type valueDecoder struct {
	t     *Transformer
	depth int
}

func (d valueDecoder) DecodeValue(v wire.Value) (any, error) {
	return d.t.decodeValue(v, d.depth+1)
}

var (
	_ registry.ValueEncoder = valueEncoder{}
	_ registry.ValueDecoder = valueDecoder{}
)

// encodeValue 按值的形状分发编码，递归进行：
//
//  1. nil            --> null 字面量；
//  2. 基础类型       --> 对应字面量；
//  3. 数组           --> 逐元素编码，顺序保留，允许异构元素；
//  4. 已注册节点     --> 按 Descriptor 的策略编码为组件封套；
//  5. 未注册节点     --> fallback 封套（best-effort，绝不因未知类型失败）；
//  6. 其他不透明值   --> 经由 JSON 往返做 best-effort 透传。
func (t *Transformer) encodeValue(v any, depth int) (wire.Value, error) {
	if depth > t.maxDepth {
		return wire.Value{}, merr.WrapErrDocumentTooDeep(t.maxDepth)
	}

	switch val := v.(type) {
	case nil:
		return wire.Null(), nil

	case bool:
		return wire.Bool(val), nil

	case string:
		return wire.String(val), nil

	case int:
		return wire.Int(int64(val)), nil
	case int8:
		return wire.Int(int64(val)), nil
	case int16:
		return wire.Int(int64(val)), nil
	case int32:
		return wire.Int(int64(val)), nil
	case int64:
		return wire.Int(val), nil
	case uint:
		return wire.Number(json.Number(fmt.Sprintf("%d", val))), nil
	case uint8:
		return wire.Int(int64(val)), nil
	case uint16:
		return wire.Int(int64(val)), nil
	case uint32:
		return wire.Int(int64(val)), nil
	case uint64:
		return wire.Number(json.Number(fmt.Sprintf("%d", val))), nil

	case float32:
		return t.encodeFloat(float64(val))
	case float64:
		return t.encodeFloat(val)

	case json.Number:
		return wire.Number(val), nil

	case []any:
		items := make([]wire.Value, 0, len(val))
		for _, item := range val {
			encoded, err := t.encodeValue(item, depth+1)
			if err != nil {
				return wire.Value{}, err
			}
			items = append(items, encoded)
		}
		return wire.Array(items), nil

	case map[string]any:
		fields := make(map[string]wire.Value, len(val))
		for name, field := range val {
			encoded, err := t.encodeValue(field, depth+1)
			if err != nil {
				return wire.Value{}, err
			}
			fields[name] = encoded
		}
		return wire.Object(fields), nil

	case *node.Element:
		if val == nil {
			return wire.Null(), nil
		}
		return t.encodeElement(val, depth)

	case node.Element:
		return t.encodeElement(&val, depth)

	default:
		// 其他不透明值（布局提示、事件绑定引用等）通过 JSON 往返透传。
		raw, err := json.Marshal(val)
		if err != nil {
			return wire.Value{}, merr.WrapErrValueNotEncodable(fmt.Sprintf("%T", v), err)
		}
		parsed, err := wire.Parse(raw)
		if err != nil {
			return wire.Value{}, merr.WrapErrValueNotEncodable(fmt.Sprintf("%T", v), err)
		}
		return parsed, nil
	}
}

func (t *Transformer) encodeFloat(f float64) (wire.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return wire.Value{}, merr.WrapErrValueNotEncodable("float64", fmt.Errorf("non-finite value %v", f))
	}
	return wire.Float(f), nil
}

// encodeElement 编码一个活动节点：
// 能解析到 Descriptor 的节点按策略编码，否则进入 fallback 路径。
func (t *Transformer) encodeElement(el *node.Element, depth int) (wire.Value, error) {
	entry, ok := t.reg.Lookup(el.Type)
	if !ok {
		return t.encodeFallback(el, depth), nil
	}

	data, err := entry.Codec.Encode(el, valueEncoder{t: t, depth: depth})
	if err != nil {
		return wire.Value{}, err
	}
	return wire.Comp(&wire.Component{
		TagName: entry.Descriptor.Tag,
		Version: entry.Descriptor.Version,
		Data:    data,
	}), nil
}

// decodeValue 对线上 Value 的分支做穷举分发，递归进行。
//
// 失败传播规则：
//   - 数组元素的解码失败向上传播，不做逐元素吞错；
//   - 可解析 tag 缺少 data 时报 ErrComponentDataMissing，本次解码无部分结果；
//   - 未注册 tag 绝不报错，交给 fallback 还原为占位节点。
func (t *Transformer) decodeValue(v wire.Value, depth int) (any, error) {
	if depth > t.maxDepth {
		return nil, merr.WrapErrDocumentTooDeep(t.maxDepth)
	}

	switch v.Kind() {
	case wire.KindNull:
		return nil, nil

	case wire.KindBool:
		return v.Bool(), nil

	case wire.KindString:
		return v.Str(), nil

	case wire.KindNumber:
		return decodeNumber(v.Number()), nil

	case wire.KindArray:
		items := v.Items()
		out := make([]any, 0, len(items))
		for _, item := range items {
			decoded, err := t.decodeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil

	case wire.KindObject:
		fields := v.Fields()
		out := make(map[string]any, len(fields))
		for name, field := range fields {
			decoded, err := t.decodeValue(field, depth+1)
			if err != nil {
				return nil, err
			}
			out[name] = decoded
		}
		return out, nil

	case wire.KindComponent:
		comp := v.Component()
		entry, ok := t.reg.Lookup(comp.TagName)
		if !ok {
			return t.decodeFallback(comp, depth), nil
		}
		if !comp.HasData() {
			return nil, merr.WrapErrComponentDataMissing(comp.TagName)
		}
		return entry.Codec.Decode(comp, valueDecoder{t: t, depth: depth})

	default:
		return nil, merr.WrapErrDocumentInvalidFormat(fmt.Errorf("unknown wire kind %s", v.Kind()))
	}
}

// decodeNumber 把数字字面量还原为活动值：整数还原为 int64，其余为 float64。
func decodeNumber(num json.Number) any {
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	// 超出 float64 表示范围的极端字面量退化为原始文本。
	return num.String()
}
