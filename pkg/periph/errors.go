package periph

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is matched by every *RangeError.
var ErrOutOfRange = errors.New("index out of range")

// RangeError reports an index beyond the chip limits.
type RangeError struct {
	What  string
	Index int
	Limit int
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.What, e.Index, e.Limit)
}

// Is matches ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func checkRange(what string, index uint8, limit int) error {
	if int(index) >= limit {
		return &RangeError{What: what, Index: int(index), Limit: limit}
	}
	return nil
}
