package mmfile

import (
	"errors"
	"fmt"
)

// ErrAllocation is returned when an Allocator cannot supply storage for growth or compaction. The file that reported it remains valid and holds whatever was written before
// the failure.
var ErrAllocation = errors.New("mmfile: allocation failed")

// Allocator supplies backing storage for file segments. Alloc returns a zero-length slice with capacity of at least n bytes, or an error wrapping ErrAllocation.
type Allocator interface {
	Alloc(n int) ([]byte, error)
}

// HeapAllocator allocates from the Go heap. It never fails.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, n)
	}
	return make([]byte, 0, n), nil
}

// BudgetAllocator allocates from the Go heap but refuses once the cumulative number of bytes handed out would exceed its budget. Storage released by the garbage collector
// is not returned to the budget.
//
// A BudgetAllocator is not safe for concurrent use.
type BudgetAllocator struct {
	remaining int
}

// NewBudgetAllocator returns an allocator that hands out at most budget bytes in total.
func NewBudgetAllocator(budget int) *BudgetAllocator {
	return &BudgetAllocator{remaining: budget}
}

// Alloc implements Allocator.
func (b *BudgetAllocator) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, n)
	}
	if n > b.remaining {
		return nil, fmt.Errorf("%w: requested %d bytes, %d remaining", ErrAllocation, n, b.remaining)
	}
	b.remaining -= n
	return make([]byte, 0, n), nil
}

// Remaining reports how many bytes may still be allocated.
func (b *BudgetAllocator) Remaining() int {
	return b.remaining
}
