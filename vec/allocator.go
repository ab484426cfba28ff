package vec

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
)

// AllocationError is returned when an allocator cannot satisfy a reservation
// within its limit. Partially reserved bytes from the same attempt are
// released before it propagates.
type AllocationError struct {
	Requested int64
	Used      int64
	Limit     int64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation of %d bytes exceeds limit, used %d of %d", e.Requested, e.Used, e.Limit)
}

// Allocator tracks vector memory against a caller-specified capacity bound.
// Every vector built through an allocator must be released back to it, on
// the error path of a failed decode as well as at end of life.
type Allocator struct {
	limit int64
	used  int64
}

func NewAllocator(limit int64) *Allocator {
	if limit <= 0 {
		limit = DefaultAllocatorLimit
	}
	return &Allocator{limit: limit}
}

const DefaultAllocatorLimit = 1 << 30

func (a *Allocator) Limit() int64 {
	return a.limit
}

// Allocated reports currently reserved bytes. Zero after all vectors from
// this allocator have been released.
func (a *Allocator) Allocated() int64 {
	return atomic.LoadInt64(&a.used)
}

func (a *Allocator) reserve(n int64) error {
	used := atomic.AddInt64(&a.used, n)
	if used > a.limit {
		atomic.AddInt64(&a.used, -n)
		return errors.WithStack(&AllocationError{Requested: n, Used: used - n, Limit: a.limit})
	}
	return nil
}

func (a *Allocator) release(n int64) {
	atomic.AddInt64(&a.used, -n)
}
