package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLarge indicates the encoded envelope exceeds the packet ceiling.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrTruncated indicates a field value ends before its declared size.
	ErrTruncated = errors.New("truncated field")
	// ErrMissingField indicates a required envelope field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrUnknownResult indicates a response carries an unsupported result tag.
	ErrUnknownResult = errors.New("unknown result")
)

// FieldTypeError reports a field decoded with an unexpected type.
type FieldTypeError struct {
	Key  uint8
	Want FieldType
	Got  FieldType
}

// Error implements error.
func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %d: type %s, want %s", e.Key, e.Got, e.Want)
}

// ResultError wraps a non-OK error code from a device result.
type ResultError struct {
	Code ErrorCode
}

// Error implements error.
func (e *ResultError) Error() string {
	return fmt.Sprintf("device error %d (%s)", uint16(e.Code), e.Code)
}
