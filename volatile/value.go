package volatile

import "sync/atomic"

// Value is a typed box readable from any goroutine. Session state is written
// from the event loop only; reads may come from wherever the host app asks.
type Value[T any] struct {
	p atomic.Pointer[T]
}

func NewValue[T any](val T) *Value[T] {
	v := &Value[T]{}
	v.p.Store(&val)
	return v
}

func (v *Value[T]) Load() T {
	return *v.p.Load()
}

func (v *Value[T]) Store(val T) {
	v.p.Store(&val)
}

func (v *Value[T]) Swap(new T) T {
	return *v.p.Swap(&new)
}
