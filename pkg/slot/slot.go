// Package slot provides fixed-capacity pools handing out stable indices.
package slot

// MaxCapacity is the largest capacity of a pool.
const MaxCapacity = 32

// Slot is a fixed-capacity pool of items addressed by index.
// Indices stay valid until removed; removal never renumbers other items.
type Slot[T any] struct {
	items []T
	used  []bool
	size  int
}

// New creates a pool with the given capacity.
func New[T any](capacity int) *Slot[T] {
	if capacity <= 0 || capacity > MaxCapacity {
		panic("slot: invalid capacity")
	}
	return &Slot[T]{
		items: make([]T, capacity),
		used:  make([]bool, capacity),
	}
}

// Len returns the number of occupied slots.
func (s *Slot[T]) Len() int {
	return s.size
}

// Cap returns the capacity.
func (s *Slot[T]) Cap() int {
	return len(s.items)
}

// Add stores item in the lowest empty slot.
// It returns false if the pool is full.
func (s *Slot[T]) Add(item T) (int, bool) {
	if s.size >= len(s.items) {
		return 0, false
	}
	for n, used := range s.used {
		if !used {
			s.items[n], s.used[n] = item, true
			s.size++
			return n, true
		}
	}
	return 0, false
}

// Remove clears the slot at index.
// It returns false if index is out of range or already empty.
func (s *Slot[T]) Remove(index int) bool {
	if index < 0 || index >= len(s.items) || !s.used[index] {
		return false
	}
	var zero T
	s.items[index], s.used[index] = zero, false
	s.size--
	return true
}

// Get returns the item at index.
func (s *Slot[T]) Get(index int) (item T, ok bool) {
	if index < 0 || index >= len(s.items) || !s.used[index] {
		return
	}
	return s.items[index], true
}
