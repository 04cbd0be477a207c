package node

// Element 是编解码器眼中通用的“活动节点”。
//
// 设计目标：
//   - 渲染/组件库本身不在本框架范围内，编解码器只关心一件事：
//     “可解析到 tag 的类型标识 + 属性包 + 嵌套内容”。
//   - Descriptor 的工厂函数、fallback 解码路径都以 Element 作为统一载体，
//     上层渲染层可在其外再做一次映射。
type Element struct {
	// Type 为节点的具体类型标识。
	// 对已注册组件而言等同于注册时的 tag；对未注册节点则为其原始类型名。
	Type string

	// Props 为节点自身声明的属性包。
	// 布局提示、标识符、样式引用、事件绑定引用等都以不透明值的形式存放在这里。
	Props map[string]any

	// Children 为节点的嵌套内容。
	// 元素可以是 *Element、基础类型或数组，是否进入线上格式由序列化策略决定。
	Children []any
}

// New 创建一个 Element。
// props 可以为 nil，内部会延迟到首次写入时再分配。
func New(typ string, props map[string]any, children ...any) *Element {
	return &Element{
		Type:     typ,
		Props:    props,
		Children: children,
	}
}

// Prop 返回指定名称的属性值。
// 第二个返回值表示属性是否存在。
func (e *Element) Prop(name string) (any, bool) {
	if e == nil || e.Props == nil {
		return nil, false
	}
	v, ok := e.Props[name]
	return v, ok
}

// SetProp 写入一个属性值。
func (e *Element) SetProp(name string, value any) {
	if e.Props == nil {
		e.Props = make(map[string]any)
	}
	e.Props[name] = value
}

// HasChildren 返回节点是否携带嵌套内容。
func (e *Element) HasChildren() bool {
	return e != nil && len(e.Children) > 0
}

// Clone 返回节点的浅拷贝：属性表与子节点切片重新分配，值本身不复制。
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	clone := &Element{Type: e.Type}
	if e.Props != nil {
		clone.Props = make(map[string]any, len(e.Props))
		for k, v := range e.Props {
			clone.Props[k] = v
		}
	}
	if e.Children != nil {
		clone.Children = make([]any, len(e.Children))
		copy(clone.Children, e.Children)
	}
	return clone
}
