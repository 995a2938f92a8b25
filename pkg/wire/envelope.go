package wire

import "fmt"

// ErrorCode is the outcome of a command reported by the device.
type ErrorCode uint16

// Error codes. The numbering is part of the wire format.
const (
	OK            ErrorCode = 0
	UnknownError  ErrorCode = 1
	WrongPinState ErrorCode = 2
	OutOfRange    ErrorCode = 3
)

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case UnknownError:
		return "UnknownError"
	case WrongPinState:
		return "WrongPinState"
	case OutOfRange:
		return "OutOfRange"
	}
	return fmt.Sprintf("ErrorCode(%d)", uint16(c))
}

// ResultTag is the discriminant of a result variant.
type ResultTag uint8

// ResultCommon is the only result variant: an error code and a data word.
const ResultCommon ResultTag = 0

// Result is the outcome of one command.
type Result struct {
	Code ErrorCode
	Data uint64
}

// Err returns a *ResultError for non-OK codes.
func (r Result) Err() error {
	if r.Code == OK {
		return nil
	}
	return &ResultError{Code: r.Code}
}

// Request is the envelope sent by the host.
// ID 0 means no response is wanted.
type Request struct {
	ID      uint16
	Command Command
}

// Response is the envelope sent by the device for a request with nonzero ID.
type Response struct {
	ID     uint16
	Result Result
}

// Envelope field keys, shared by requests and responses.
const (
	keyID   = 0
	keyTag  = 1
	keyBody = 2
)

// MarshalBinary encodes the request payload (without framing).
func (r *Request) MarshalBinary() ([]byte, error) {
	e := encoder{buf: make([]byte, 0, MaxPayloadSize)}
	e.u16(keyID, r.ID)
	e.u8(keyTag, uint8(r.Command.Tag()))
	e.group(keyBody, r.Command.encodeBody)
	return e.finish()
}

// UnmarshalBinary decodes a request payload.
func (r *Request) UnmarshalBinary(data []byte) error {
	var (
		hasTag bool
		tag    uint8
		body   []byte
	)
	err := decodeFields(data, func(f *field) (err error) {
		switch f.key {
		case keyID:
			return f.u16(&r.ID)
		case keyTag:
			hasTag = true
			return f.u8(&tag)
		case keyBody:
			body, err = f.bytesOrGroup(TypeGroup)
		}
		return
	})
	if err != nil {
		return err
	}
	if !hasTag {
		return fmt.Errorf("command tag: %w", ErrMissingField)
	}
	cmd := NewCommand(Tag(tag))
	if err := cmd.decodeBody(body); err != nil {
		return fmt.Errorf("%s: %w", Tag(tag), err)
	}
	r.Command = cmd
	return nil
}

// MarshalBinary encodes the response payload (without framing).
func (r *Response) MarshalBinary() ([]byte, error) {
	e := encoder{buf: make([]byte, 0, MaxPayloadSize)}
	e.u16(keyID, r.ID)
	e.u8(keyTag, uint8(ResultCommon))
	e.group(keyBody, func(e *encoder) {
		e.u16(0, uint16(r.Result.Code))
		e.u64(1, r.Result.Data)
	})
	return e.finish()
}

// UnmarshalBinary decodes a response payload.
func (r *Response) UnmarshalBinary(data []byte) error {
	var (
		tag  uint8
		body []byte
	)
	err := decodeFields(data, func(f *field) (err error) {
		switch f.key {
		case keyID:
			return f.u16(&r.ID)
		case keyTag:
			return f.u8(&tag)
		case keyBody:
			body, err = f.bytesOrGroup(TypeGroup)
		}
		return
	})
	if err != nil {
		return err
	}
	if ResultTag(tag) != ResultCommon {
		return fmt.Errorf("result tag %d: %w", tag, ErrUnknownResult)
	}
	r.Result = Result{}
	return decodeFields(body, func(f *field) error {
		switch f.key {
		case 0:
			var code uint16
			if err := f.u16(&code); err != nil {
				return err
			}
			r.Result.Code = ErrorCode(code)
		case 1:
			return f.u64(&r.Result.Data)
		}
		return nil
	})
}

func (e *encoder) finish() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if len(e.buf) > MaxPayloadSize {
		return nil, fmt.Errorf("%d bytes: %w", len(e.buf), ErrFrameTooLarge)
	}
	return e.buf, nil
}
