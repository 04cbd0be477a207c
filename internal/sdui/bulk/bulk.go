package bulk

import (
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/transformer"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/conc"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/hardware"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

// Runner 对一批文档做并行编解码。
//
// 文档之间相互独立，按输入顺序返回结果；任何一篇失败即整批失败，
// 不返回部分结果。Transformer 自身无跨调用状态，可安全并发复用。
type Runner struct {
	tr *transformer.Transformer

	encPool *conc.Pool[string]
	decPool *conc.Pool[any]
}

// NewRunner 创建并行编解码器，workers <= 0 时取 CPU 核数。
func NewRunner(tr *transformer.Transformer, workers int) (*Runner, error) {
	if tr == nil {
		return nil, merr.WrapErrParameterMissing("transformer")
	}
	if workers <= 0 {
		workers = hardware.GetCPUNum()
	}
	return &Runner{
		tr:      tr,
		encPool: conc.NewPool[string](workers, conc.WithPreAlloc(true)),
		decPool: conc.NewPool[any](workers, conc.WithPreAlloc(true)),
	}, nil
}

// EncodeAll 并行编码一批活动值，结果与输入一一对应。
func (r *Runner) EncodeAll(values []any) ([]string, error) {
	futures := make([]*conc.Future[string], len(values))
	for i, v := range values {
		v := v
		futures[i] = r.encPool.Submit(func() (string, error) {
			return r.tr.Serialize(v)
		})
	}

	out := make([]string, len(futures))
	for i, f := range futures {
		text, err := f.Await()
		if err != nil {
			// 把剩余任务等完再返回，避免泄漏在途任务。
			_ = conc.AwaitAll(futures[i+1:]...)
			return nil, err
		}
		out[i] = text
	}
	return out, nil
}

// DecodeAll 并行解码一批文本，结果与输入一一对应。
func (r *Runner) DecodeAll(texts []string) ([]any, error) {
	futures := make([]*conc.Future[any], len(texts))
	for i, text := range texts {
		text := text
		futures[i] = r.decPool.Submit(func() (any, error) {
			return r.tr.Deserialize(text)
		})
	}

	out := make([]any, len(futures))
	for i, f := range futures {
		v, err := f.Await()
		if err != nil {
			_ = conc.AwaitAll(futures[i+1:]...)
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Close 回收底层协程池。
func (r *Runner) Close() {
	r.encPool.Release()
	r.decPool.Release()
}
