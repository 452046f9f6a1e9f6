package game

import "sync/atomic"

// IDAllocator hands out player IDs that are never reused. It is safe for
// concurrent use and is normally shared by every table on a server.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator creates an allocator whose first ID is 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a fresh ID.
func (a *IDAllocator) Next() int {
	return int(a.next.Add(1) - 1)
}
