package host

import "sync/atomic"

// IDAllocator hands out correlation ids.
// Ids increase monotonically, wrap at 16 bits and never yield 0.
type IDAllocator struct {
	counter atomic.Uint32
}

// Next returns the next nonzero id.
func (a *IDAllocator) Next() uint16 {
	for {
		if id := uint16(a.counter.Add(1)); id != 0 {
			return id
		}
	}
}
