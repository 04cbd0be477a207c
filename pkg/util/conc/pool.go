// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"fmt"

	ants "github.com/panjf2000/ants/v2"

	"github.com/lk2023060901/sdui-garden-go/pkg/util/hardware"
)

// Pool 是带泛型返回值的协程池封装。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建容量为 cap 的协程池，cap <= 0 时取 CPU 核数。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}
	if cap <= 0 {
		cap = hardware.GetCPUNum()
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		// 参数已在上面归一化过，ants 只会因非法容量报错。
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// NewDefaultPool 以 CPU 核数为容量创建协程池。
func NewDefaultPool[T any]() *Pool[T] {
	return NewPool[T](hardware.GetCPUNum(), WithPreAlloc(true))
}

// Submit 提交一个任务并返回其 Future。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}

		// 这里手动 recover 而不是依赖 ants 的 panic handler，
		// 以便把 panic 作为 error 交还给 Future 的等待方。
		defer func() {
			if v := recover(); v != nil {
				future.err = fmt.Errorf("conc: panic during task execution: %v", v)
				if !pool.opt.concealPanic {
					panic(v)
				}
			}
		}()
		res, err := method()
		future.value = res
		future.err = err
	})
	if err != nil {
		future.err = err
		close(future.ch)
	}
	return future
}

// Cap 返回协程池容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回当前正在执行任务的 worker 数。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回当前可用的 worker 数。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Release 关闭协程池并回收全部 worker。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}

// Future 表示一次异步任务的结果句柄。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

// Await 阻塞等待任务完成并返回结果。
func (future *Future[T]) Await() (T, error) {
	<-future.ch
	return future.value, future.err
}

// Done 返回任务完成时被关闭的通道。
func (future *Future[T]) Done() <-chan struct{} {
	return future.ch
}

// AwaitAll 等待全部 Future 完成并返回第一个出现的错误。
func AwaitAll[T any](futures ...*Future[T]) error {
	var first error
	for _, f := range futures {
		if _, err := f.Await(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
