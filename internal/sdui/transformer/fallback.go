package transformer

import (
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/wire"
	"github.com/lk2023060901/sdui-garden-go/pkg/log"
	"github.com/lk2023060901/sdui-garden-go/pkg/metrics"
)

// encodeFallback 为未注册节点生成兜底封套。
//
// 封套形状固定为：
//
//	{"tagName":"__react_node__","version":"1.0.0",
//	 "data":{"type":"react-element","elementType":<原始类型名>,"props":{...}}}
//
// props 是原节点属性包的受限快照：超过深度或单层字段上限的部分被截断，
// 截断只丢内容、不报错。子节点折叠进快照的 children 字段。
// 这条路径是 best-effort 的：无法快照的叶子值退化为 null，绝不向上抛错。
func (t *Transformer) encodeFallback(el *node.Element, depth int) wire.Value {
	metrics.FallbackEncodeTotal.WithLabelValues(el.Type).Inc()

	truncated := false
	props := make(map[string]wire.Value, len(el.Props)+1)
	for name, v := range el.Props {
		if len(props) >= t.maxFallbackFields {
			truncated = true
			break
		}
		props[name] = t.snapshotValue(v, depth+1, &truncated)
	}
	if el.HasChildren() {
		if len(props) < t.maxFallbackFields {
			props[wire.FieldChildren] = t.snapshotValue(el.Children, depth+1, &truncated)
		} else {
			truncated = true
		}
	}
	if truncated {
		metrics.FallbackTruncations.Inc()
		log.Warn("fallback snapshot truncated",
			log.FieldTag(el.Type))
	}

	return wire.Comp(&wire.Component{
		TagName: wire.FallbackTag,
		Version: wire.FallbackVersion,
		Data: map[string]wire.Value{
			wire.FieldType:        wire.String(wire.FallbackDataType),
			wire.FieldElementType: wire.String(el.Type),
			wire.FieldProps:       wire.Object(props),
		},
	})
}

// snapshotValue 对单个属性值做受限快照。与 encodeValue 不同，
// 这里遇到任何无法处理的形状都退化为 null 而不是返回错误。
func (t *Transformer) snapshotValue(v any, depth int, truncated *bool) wire.Value {
	if depth > t.maxFallbackDepth {
		*truncated = true
		return wire.Null()
	}

	switch val := v.(type) {
	case []any:
		n := len(val)
		if n > t.maxFallbackFields {
			n = t.maxFallbackFields
			*truncated = true
		}
		items := make([]wire.Value, 0, n)
		for _, item := range val[:n] {
			items = append(items, t.snapshotValue(item, depth+1, truncated))
		}
		return wire.Array(items)

	case map[string]any:
		fields := make(map[string]wire.Value, len(val))
		for name, field := range val {
			if len(fields) >= t.maxFallbackFields {
				*truncated = true
				break
			}
			fields[name] = t.snapshotValue(field, depth+1, truncated)
		}
		return wire.Object(fields)

	default:
		// 嵌套节点走常规编码分发：已注册类型仍按其策略生成组件封套，
		// 未注册类型在 encodeValue 内部继续走 fallback。
		encoded, err := t.encodeValue(v, depth)
		if err != nil {
			*truncated = true
			return wire.Null()
		}
		return encoded
	}
}

// decodeFallback 还原未注册 tag 的封套为占位节点，绝不报错：
//
//   - 兜底封套（tagName 为 __react_node__）还原为 elementType 命名的占位节点，
//     props 快照 best-effort 还原为属性包；
//   - 其他未知 tag 的封套还原为以该 tag 命名的占位节点，data 整体作为属性包。
//
// 嵌套值的解码失败在这里被吞掉（对应字段置 nil），未知节点的存在
// 不应当让整篇文档解码失败。
func (t *Transformer) decodeFallback(comp *wire.Component, depth int) *node.Element {
	metrics.FallbackDecodeTotal.WithLabelValues(comp.TagName).Inc()

	if comp.TagName == wire.FallbackTag {
		typ := wire.FallbackTag
		if v, ok := comp.Data[wire.FieldElementType]; ok && v.Kind() == wire.KindString {
			typ = v.Str()
		}
		props := map[string]any{}
		if v, ok := comp.Data[wire.FieldProps]; ok && v.Kind() == wire.KindObject {
			props = t.looseDecodeObject(v.Fields(), depth)
		}
		return node.New(typ, props)
	}

	// data 缺失或非对象时仍给出占位节点，属性包为空。
	props := map[string]any{}
	if comp.HasData() {
		props = t.looseDecodeObject(comp.Data, depth)
	}
	return node.New(comp.TagName, props)
}

func (t *Transformer) looseDecodeObject(fields map[string]wire.Value, depth int) map[string]any {
	out := make(map[string]any, len(fields))
	for name, field := range fields {
		decoded, err := t.decodeValue(field, depth+1)
		if err != nil {
			log.RatedWarn(10, "fallback field dropped during decode",
				log.FieldComponent(name))
			decoded = nil
		}
		out[name] = decoded
	}
	return out
}
