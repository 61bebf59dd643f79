package tensor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrAllocation is matched by every AllocationError.
var ErrAllocation = errors.New("allocation failed")

// AllocationError reports a tensor request the allocator could not serve.
type AllocationError struct {
	DType     DataType
	Shape     Shape
	Requested int64 // bytes asked for
	Available int64 // bytes left under the limit
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate %s%v: %d bytes requested, %d available", e.DType, []int(e.Shape), e.Requested, e.Available)
}

// Unwrap lets errors.Is match ErrAllocation.
func (e *AllocationError) Unwrap() error { return ErrAllocation }

// Allocator hands out tensors whose lifetime the caller scopes with Release.
type Allocator interface {
	Alloc(shape Shape, dtype DataType) (*RawTensor, error)
}

// HeapAllocator allocates every tensor from the Go heap with NewRaw.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype)
}

// PoolAllocator recycles fixed-width buffers through a sync.Pool and
// enforces an optional limit on bytes outstanding at once.
// It is safe for concurrent use.
type PoolAllocator struct {
	limit int64 // 0 means unlimited
	inUse atomic.Int64
	pool  sync.Pool
}

// NewPoolAllocator returns a PoolAllocator capped at limit bytes (0 = no cap).
func NewPoolAllocator(limit int64) *PoolAllocator {
	return &PoolAllocator{limit: limit}
}

// InUse returns the number of bytes currently handed out and not released.
func (p *PoolAllocator) InUse() int64 {
	return p.inUse.Load()
}

// Alloc implements Allocator. The returned tensor is zeroed.
func (p *PoolAllocator) Alloc(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %s", dtype)
	}

	n, err := elementCount(shape, dtype)
	if err != nil {
		return nil, err
	}
	size := int64(n) * int64(dtype.Size())
	if err := p.reserve(shape, dtype, size); err != nil {
		return nil, err
	}

	var buf *tensorBuffer
	if dtype == String {
		buf = newStringBuffer(n)
	} else {
		buf = &tensorBuffer{data: p.get(int(size))}
		buf.refCount.Store(1)
		buf.onFree = p.put
	}
	buf.freed = func(bytes int64) { p.inUse.Add(-bytes) }

	return newRawWithBuffer(shape, dtype, buf), nil
}

func (p *PoolAllocator) reserve(shape Shape, dtype DataType, size int64) error {
	for {
		cur := p.inUse.Load()
		if p.limit > 0 && cur+size > p.limit {
			return &AllocationError{DType: dtype, Shape: shape.Clone(), Requested: size, Available: p.limit - cur}
		}
		if p.inUse.CompareAndSwap(cur, cur+size) {
			return nil
		}
	}
}

func (p *PoolAllocator) get(size int) []byte {
	if v, ok := p.pool.Get().(*[]byte); ok && cap(*v) >= size {
		b := (*v)[:size]
		clear(b)
		return b
	}
	return alignedBytes(size)
}

func (p *PoolAllocator) put(b []byte) {
	if cap(b) == 0 {
		return
	}
	p.pool.Put(&b)
}
