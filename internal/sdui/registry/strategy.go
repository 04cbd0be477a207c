package registry

import (
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/wire"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/typeutil"
)

// reservedDataFields 为 data 中不属于普通属性的保留字段。
var reservedDataFields = typeutil.NewSet(wire.FieldChildren)

// newStrategyCodec 根据注册记录构建条目的 Codec。
// 策略到实现的映射在注册时确定一次，编码阶段不再做任何类型内省。
func newStrategyCodec(desc Descriptor) Codec {
	switch desc.Strategy {
	case StrategyContainer:
		return &containerCodec{viewCodec{fields: desc.Fields, factory: desc.New}}
	case StrategyContentProp:
		return &contentPropCodec{field: desc.ContentField, factory: desc.New}
	default:
		return &viewCodec{fields: desc.Fields, factory: desc.New}
	}
}

// viewCodec 实现 View 策略：只捕获声明过的属性字段。
// 节点即使携带嵌套内容，也不会进入线上格式。
type viewCodec struct {
	fields  []string
	factory Factory
}

var _ Codec = (*viewCodec)(nil)

func (c *viewCodec) Encode(el *node.Element, enc ValueEncoder) (map[string]wire.Value, error) {
	return c.encodeFields(el, enc)
}

func (c *viewCodec) encodeFields(el *node.Element, enc ValueEncoder) (map[string]wire.Value, error) {
	data := make(map[string]wire.Value)

	// 未声明字段列表时捕获属性包的全部字段，保留字段除外。
	if len(c.fields) == 0 {
		for name, v := range el.Props {
			if reservedDataFields.Contain(name) {
				continue
			}
			encoded, err := enc.EncodeValue(v)
			if err != nil {
				return nil, err
			}
			data[name] = encoded
		}
		return data, nil
	}

	for _, name := range c.fields {
		v, ok := el.Prop(name)
		if !ok {
			continue
		}
		encoded, err := enc.EncodeValue(v)
		if err != nil {
			return nil, err
		}
		data[name] = encoded
	}
	return data, nil
}

func (c *viewCodec) Decode(comp *wire.Component, dec ValueDecoder) (*node.Element, error) {
	return decodeEnvelope(comp, dec, c.factory)
}

// containerCodec 实现 Container 策略：View 的捕获行为，
// 外加把嵌套内容递归编码到 data 的保留字段 children 下。
type containerCodec struct {
	viewCodec
}

var _ Codec = (*containerCodec)(nil)

func (c *containerCodec) Encode(el *node.Element, enc ValueEncoder) (map[string]wire.Value, error) {
	data, err := c.encodeFields(el, enc)
	if err != nil {
		return nil, err
	}

	if !el.HasChildren() {
		return data, nil
	}

	// 单个子节点直接内联，多个子节点编码为有序数组。
	if len(el.Children) == 1 {
		child, err := enc.EncodeValue(el.Children[0])
		if err != nil {
			return nil, err
		}
		data[wire.FieldChildren] = child
		return data, nil
	}

	items := make([]wire.Value, 0, len(el.Children))
	for _, child := range el.Children {
		encoded, err := enc.EncodeValue(child)
		if err != nil {
			return nil, err
		}
		items = append(items, encoded)
	}
	data[wire.FieldChildren] = wire.Array(items)
	return data, nil
}

// contentPropCodec 实现 ContentProp 策略：只捕获指定的标量载荷字段。
// 嵌套内容被显式排除，children 字段永远不会出现在 data 中。
type contentPropCodec struct {
	field   string
	factory Factory
}

var _ Codec = (*contentPropCodec)(nil)

func (c *contentPropCodec) Encode(el *node.Element, enc ValueEncoder) (map[string]wire.Value, error) {
	data := make(map[string]wire.Value)
	v, ok := el.Prop(c.field)
	if !ok {
		return data, nil
	}
	encoded, err := enc.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	data[c.field] = encoded
	return data, nil
}

func (c *contentPropCodec) Decode(comp *wire.Component, dec ValueDecoder) (*node.Element, error) {
	return decodeEnvelope(comp, dec, c.factory)
}

// decodeEnvelope 是三个策略共用的解码流程：
// 先把捕获到的 children 递归还原为活动子树，再把其余 data 字段还原为属性集，
// 最后调用工厂重建活动节点。
func decodeEnvelope(comp *wire.Component, dec ValueDecoder, factory Factory) (*node.Element, error) {
	props := make(map[string]any, len(comp.Data))
	var children []any

	for name, v := range comp.Data {
		decoded, err := dec.DecodeValue(v)
		if err != nil {
			return nil, err
		}

		if reservedDataFields.Contain(name) {
			switch c := decoded.(type) {
			case nil:
				// children 为 null 时视为无内容。
			case []any:
				children = c
			default:
				children = []any{c}
			}
			continue
		}
		props[name] = decoded
	}

	return factory(props, children), nil
}
