package wire

import (
	"encoding/binary"
	"fmt"
)

// FieldType is the value encoding of a field, stored in the low 3 bits of
// the field header.
type FieldType uint8

// Field types.
const (
	TypeU8 FieldType = iota
	TypeU16
	TypeU32
	TypeU64
	TypeBool
	TypeBytes
	TypeGroup
)

const (
	maxFieldKey   = 31
	fieldTypeMask = 7
)

var fieldTypeNames = [...]string{"u8", "u16", "u32", "u64", "bool", "bytes", "group"}

// String implements fmt.Stringer.
func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t FieldType) fixedSize() int {
	switch t {
	case TypeU8, TypeBool:
		return 1
	case TypeU16:
		return 2
	case TypeU32:
		return 4
	case TypeU64:
		return 8
	}
	return -1
}

type encoder struct {
	buf []byte
	err error
}

func (e *encoder) header(key uint8, t FieldType) {
	if key > maxFieldKey {
		panic(fmt.Sprintf("field key %d out of range", key))
	}
	e.buf = append(e.buf, key<<3|byte(t))
}

func (e *encoder) u8(key uint8, v uint8) {
	e.header(key, TypeU8)
	e.buf = append(e.buf, v)
}

func (e *encoder) u16(key uint8, v uint16) {
	e.header(key, TypeU16)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *encoder) u32(key uint8, v uint32) {
	e.header(key, TypeU32)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) u64(key uint8, v uint64) {
	e.header(key, TypeU64)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) boolean(key uint8, v bool) {
	e.header(key, TypeBool)
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) optU8(key uint8, v *uint8) {
	if v != nil {
		e.u8(key, *v)
	}
}

func (e *encoder) bytes(key uint8, p []byte) {
	if len(p) > 0xff {
		e.fail(ErrFrameTooLarge)
		return
	}
	e.header(key, TypeBytes)
	e.buf = append(e.buf, byte(len(p)))
	e.buf = append(e.buf, p...)
}

func (e *encoder) group(key uint8, fn func(*encoder)) {
	e.header(key, TypeGroup)
	at := len(e.buf)
	e.buf = append(e.buf, 0)
	fn(e)
	size := len(e.buf) - at - 1
	if size > 0xff {
		e.fail(ErrFrameTooLarge)
		return
	}
	e.buf[at] = byte(size)
}

func (e *encoder) raw(p []byte) {
	e.buf = append(e.buf, p...)
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

type field struct {
	key  uint8
	typ  FieldType
	val  uint64
	data []byte
}

func (f *field) expect(t FieldType) error {
	if f.typ != t {
		return &FieldTypeError{Key: f.key, Want: t, Got: f.typ}
	}
	return nil
}

func (f *field) u8(dst *uint8) error {
	if err := f.expect(TypeU8); err != nil {
		return err
	}
	*dst = uint8(f.val)
	return nil
}

func (f *field) optU8(dst **uint8) error {
	var v uint8
	if err := f.u8(&v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func (f *field) u16(dst *uint16) error {
	if err := f.expect(TypeU16); err != nil {
		return err
	}
	*dst = uint16(f.val)
	return nil
}

func (f *field) u32(dst *uint32) error {
	if err := f.expect(TypeU32); err != nil {
		return err
	}
	*dst = uint32(f.val)
	return nil
}

func (f *field) u64(dst *uint64) error {
	if err := f.expect(TypeU64); err != nil {
		return err
	}
	*dst = f.val
	return nil
}

func (f *field) boolean(dst *bool) error {
	if err := f.expect(TypeBool); err != nil {
		return err
	}
	*dst = f.val != 0
	return nil
}

// bytesOrGroup returns the raw content of a length prefixed field.
func (f *field) bytesOrGroup(t FieldType) ([]byte, error) {
	if err := f.expect(t); err != nil {
		return nil, err
	}
	return f.data, nil
}

// decodeFields walks all fields in data and calls fn for each of them.
// Fields with unknown keys should be ignored by fn.
func decodeFields(data []byte, fn func(*field) error) error {
	for pos := 0; pos < len(data); {
		f := field{key: data[pos] >> 3, typ: FieldType(data[pos] & fieldTypeMask)}
		pos++
		switch f.typ {
		case TypeU8, TypeBool, TypeU16, TypeU32, TypeU64:
			size := f.typ.fixedSize()
			if pos+size > len(data) {
				return fmt.Errorf("field %d: %w", f.key, ErrTruncated)
			}
			switch size {
			case 1:
				f.val = uint64(data[pos])
			case 2:
				f.val = uint64(binary.LittleEndian.Uint16(data[pos:]))
			case 4:
				f.val = uint64(binary.LittleEndian.Uint32(data[pos:]))
			case 8:
				f.val = binary.LittleEndian.Uint64(data[pos:])
			}
			pos += size
		case TypeBytes, TypeGroup:
			if pos >= len(data) {
				return fmt.Errorf("field %d: %w", f.key, ErrTruncated)
			}
			size := int(data[pos])
			pos++
			if pos+size > len(data) {
				return fmt.Errorf("field %d: %w", f.key, ErrTruncated)
			}
			f.data = data[pos : pos+size]
			pos += size
		default:
			return fmt.Errorf("field %d: unknown type %d", f.key, uint8(f.typ))
		}
		if err := fn(&f); err != nil {
			return err
		}
	}
	return nil
}
