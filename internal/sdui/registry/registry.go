package registry

import (
	"sync"

	"github.com/blang/semver/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/wire"
	"github.com/lk2023060901/sdui-garden-go/pkg/log"
	"github.com/lk2023060901/sdui-garden-go/pkg/metrics"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

// Strategy 是 Descriptor 在注册时选定的序列化策略，三者互斥。
type Strategy int32

const (
	// StrategyView 只捕获节点自身声明的数据字段，嵌套内容一律静默丢弃。
	StrategyView Strategy = iota

	// StrategyContainer 在 View 的基础上递归编码嵌套内容，
	// 结果存放在 data 的保留字段 children 下。
	StrategyContainer

	// StrategyContentProp 只捕获指定的单一标量字段作为节点的文本载荷；
	// 即使节点携带嵌套内容也绝不写入 children，避免同一信息出现两份表示。
	StrategyContentProp
)

var strategyNames = map[Strategy]string{
	StrategyView:        "view",
	StrategyContainer:   "container",
	StrategyContentProp: "content_prop",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Strategy) valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// Factory 根据解码出的属性集与子节点重建活动节点。
type Factory func(props map[string]any, children []any) *node.Element

// Descriptor 是组件类型的注册记录。
type Descriptor struct {
	// Tag 为组件的唯一标识，必须非空。
	Tag string

	// Version 为建议性的语义化版本号。
	// 只做记录与宽松校验，不做跨调用的单调性约束。
	Version string

	// Strategy 决定嵌套内容如何进入线上格式。
	Strategy Strategy

	// Fields 为 View/Container 策略要捕获的属性名。
	// 留空表示捕获属性包中的全部字段。
	Fields []string

	// ContentField 为 ContentProp 策略指定的载荷字段名，例如 content 或 html。
	ContentField string

	// New 为可选的节点工厂。留空时使用以 Tag 为类型标识的通用工厂。
	New Factory
}

// ValueEncoder 把任意活动值编码为线上 Value，由 Transformer 实现。
type ValueEncoder interface {
	EncodeValue(v any) (wire.Value, error)
}

// ValueDecoder 把线上 Value 解码回活动值，由 Transformer 实现。
type ValueDecoder interface {
	DecodeValue(v wire.Value) (any, error)
}

// Codec 是注册表条目内部保存的编解码行为。
//
// 分发永远走这个接口，而不是在活动节点的类型上做临时属性探测；
// 具体实现由注册时的策略决定，注册之后不再变化。
type Codec interface {
	Encode(el *node.Element, enc ValueEncoder) (map[string]wire.Value, error)
	Decode(comp *wire.Component, dec ValueDecoder) (*node.Element, error)
}

// Entry 为注册表内的一个条目：注册记录加上按策略构建好的 Codec。
type Entry struct {
	Descriptor Descriptor
	Codec      Codec
}

// Registry 维护 tag 到 Entry 的映射。
//
// 说明：
//   - 注册表是显式构造、由应用持有并注入 Transformer 的值，不存在包级单例，
//     同一进程内允许多个互相独立的注册表；
//   - 稳态用法是启动期注册、运行期只读；为了支持运行期注册与解码并发，
//     内部用读写锁保护，读方不会观测到半更新状态。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New 创建一个空的 Registry。
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register 注册一个 Descriptor。
//
// 要求：
//   - Tag 非空，否则返回注册错误；
//   - Strategy 必须是三个已知策略之一；
//   - ContentProp 策略必须提供 ContentField。
//
// 同一 tag 重复注册时后者覆盖前者（last write wins），并输出告警日志。
func (r *Registry) Register(desc Descriptor) error {
	if desc.Tag == "" {
		return merr.WrapErrRegistration("descriptor tag must be a non-empty string")
	}
	if !desc.Strategy.valid() {
		return merr.WrapErrStrategyInvalid(int32(desc.Strategy), desc.Tag)
	}
	if desc.Strategy == StrategyContentProp && desc.ContentField == "" {
		return merr.WrapErrContentFieldMissing(desc.Tag)
	}

	if desc.Version != "" {
		if _, err := semver.ParseTolerant(desc.Version); err != nil {
			log.Warn("descriptor version is not valid semver",
				zap.String("tag", desc.Tag),
				zap.String("version", desc.Version))
		}
	}

	desc.Fields = lo.Uniq(desc.Fields)
	if desc.New == nil {
		desc.New = defaultFactory(desc.Tag)
	}

	entry := &Entry{
		Descriptor: desc,
		Codec:      newStrategyCodec(desc),
	}

	r.mu.Lock()
	_, overwritten := r.entries[desc.Tag]
	r.entries[desc.Tag] = entry
	total := len(r.entries)
	r.mu.Unlock()

	if overwritten {
		metrics.DescriptorOverwrites.Inc()
		log.Warn("descriptor overwritten, last registration wins",
			zap.String("tag", desc.Tag),
			zap.String("version", desc.Version))
	}
	metrics.RegisteredDescriptors.Set(float64(total))
	return nil
}

// Lookup 返回 tag 对应的条目。
// 第二个返回值表示 tag 是否可解析；未注册不是错误。
func (r *Registry) Lookup(tag string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[tag]
	return entry, ok
}

// List 返回当前已注册 tag 的有序集合（按字典序）。
func (r *Registry) List() []string {
	r.mu.RLock()
	tags := maps.Keys(r.entries)
	r.mu.RUnlock()

	slices.Sort(tags)
	return tags
}

// Len 返回当前已注册的 Descriptor 数量。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear 移除全部条目，用于测试隔离或重置。
func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	metrics.RegisteredDescriptors.Set(0)
}

func defaultFactory(tag string) Factory {
	return func(props map[string]any, children []any) *node.Element {
		return node.New(tag, props, children...)
	}
}
