package wire

import (
	"encoding/binary"
	"fmt"
)

// Tag is the discriminant of a command variant.
type Tag uint8

// Command tags. The numbering is part of the wire format.
const (
	TagVersion                Tag = 0
	TagGetCpuFrequency        Tag = 1
	TagGpioOutputInit         Tag = 64
	TagGpioOutputSet          Tag = 65
	TagGpioOutputGet          Tag = 66
	TagPwmInit                Tag = 67
	TagPwmSetDutyCyclePercent Tag = 68
	TagPioLoadProgram         Tag = 69
	TagPioSmInit              Tag = 70
	TagPioSmSetEnable         Tag = 71
	TagPioSmPush              Tag = 72
	TagPioSmExecInstr         Tag = 73
)

var tagNames = map[Tag]string{
	TagVersion:                "Version",
	TagGetCpuFrequency:        "GetCpuFrequency",
	TagGpioOutputInit:         "GpioOutputInit",
	TagGpioOutputSet:          "GpioOutputSet",
	TagGpioOutputGet:          "GpioOutputGet",
	TagPwmInit:                "PwmInit",
	TagPwmSetDutyCyclePercent: "PwmSetDutyCyclePercent",
	TagPioLoadProgram:         "PioLoadProgram",
	TagPioSmInit:              "PioSmInit",
	TagPioSmSetEnable:         "PioSmSetEnable",
	TagPioSmPush:              "PioSmPush",
	TagPioSmExecInstr:         "PioSmExecInstr",
}

// String implements fmt.Stringer.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Command is a typed operation sent from the host to the device.
type Command interface {
	Tag() Tag

	encodeBody(*encoder)
	decodeBody([]byte) error
}

// NewCommand creates an empty command for the tag.
// An UnknownCommand is returned for tags not defined here.
func NewCommand(tag Tag) Command {
	switch tag {
	case TagVersion:
		return &Version{}
	case TagGetCpuFrequency:
		return &GetCpuFrequency{}
	case TagGpioOutputInit:
		return &GpioOutputInit{}
	case TagGpioOutputSet:
		return &GpioOutputSet{}
	case TagGpioOutputGet:
		return &GpioOutputGet{}
	case TagPwmInit:
		return &PwmInit{}
	case TagPwmSetDutyCyclePercent:
		return &PwmSetDutyCyclePercent{}
	case TagPioLoadProgram:
		return &PioLoadProgram{}
	case TagPioSmInit:
		return &PioSmInit{}
	case TagPioSmSetEnable:
		return &PioSmSetEnable{}
	case TagPioSmPush:
		return &PioSmPush{}
	case TagPioSmExecInstr:
		return &PioSmExecInstr{}
	}
	return &UnknownCommand{Kind: tag}
}

// U8 returns a pointer to v, for optional fields.
func U8(v uint8) *uint8 {
	return &v
}

// Protocol version implemented by this package.
const (
	ProtocolMajor = 1
	ProtocolMinor = 0
	ProtocolPatch = 0
)

// Version announces the host protocol version. The device replies
// with its firmware version packed as major<<32 | minor<<16 | patch.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Tag implements Command.
func (c *Version) Tag() Tag { return TagVersion }

func (c *Version) encodeBody(e *encoder) {
	e.u16(1, c.Major)
	e.u16(2, c.Minor)
	e.u16(3, c.Patch)
}

func (c *Version) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 1:
			return f.u16(&c.Major)
		case 2:
			return f.u16(&c.Minor)
		case 3:
			return f.u16(&c.Patch)
		}
		return nil
	})
}

// PackVersion packs a version triple into result data.
func PackVersion(major, minor, patch uint16) uint64 {
	return uint64(major)<<32 | uint64(minor)<<16 | uint64(patch)
}

// UnpackVersion reverses PackVersion.
func UnpackVersion(data uint64) (major, minor, patch uint16) {
	return uint16(data >> 32), uint16(data >> 16), uint16(data)
}

// GetCpuFrequency queries the system clock in Hz, returned as result data.
// Freq is reserved and ignored by the device.
type GetCpuFrequency struct {
	Freq uint32
}

// Tag implements Command.
func (c *GetCpuFrequency) Tag() Tag { return TagGetCpuFrequency }

func (c *GetCpuFrequency) encodeBody(e *encoder) {
	e.u32(0, c.Freq)
}

func (c *GetCpuFrequency) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if f.key == 0 {
			return f.u32(&c.Freq)
		}
		return nil
	})
}

// GpioOutputInit claims a pin as a digital output driven to Value.
type GpioOutputInit struct {
	Pin   uint8
	Value bool
}

// Tag implements Command.
func (c *GpioOutputInit) Tag() Tag { return TagGpioOutputInit }

func (c *GpioOutputInit) encodeBody(e *encoder) {
	e.u8(0, c.Pin)
	e.boolean(1, c.Value)
}

func (c *GpioOutputInit) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 0:
			return f.u8(&c.Pin)
		case 1:
			return f.boolean(&c.Value)
		}
		return nil
	})
}

// GpioOutputSet drives an owned output.
type GpioOutputSet struct {
	Pin   uint8
	State bool
}

// Tag implements Command.
func (c *GpioOutputSet) Tag() Tag { return TagGpioOutputSet }

func (c *GpioOutputSet) encodeBody(e *encoder) {
	e.u8(0, c.Pin)
	e.boolean(1, c.State)
}

func (c *GpioOutputSet) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 0:
			return f.u8(&c.Pin)
		case 1:
			return f.boolean(&c.State)
		}
		return nil
	})
}

// GpioOutputGet reads back the level of an owned output.
type GpioOutputGet struct {
	Pin uint8
}

// Tag implements Command.
func (c *GpioOutputGet) Tag() Tag { return TagGpioOutputGet }

func (c *GpioOutputGet) encodeBody(e *encoder) {
	e.u8(0, c.Pin)
}

func (c *GpioOutputGet) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if f.key == 0 {
			return f.u8(&c.Pin)
		}
		return nil
	})
}

// PwmInit configures a PWM slice and binds up to two output pins to it.
type PwmInit struct {
	Slice    uint8
	PinA     *uint8
	PinB     *uint8
	Divider  uint8
	CompareA uint16
	CompareB uint16
	Top      uint16
}

// Tag implements Command.
func (c *PwmInit) Tag() Tag { return TagPwmInit }

func (c *PwmInit) encodeBody(e *encoder) {
	e.u8(0, c.Slice)
	e.optU8(1, c.PinA)
	e.optU8(2, c.PinB)
	e.u8(3, c.Divider)
	e.u16(4, c.CompareA)
	e.u16(5, c.CompareB)
	e.u16(6, c.Top)
}

func (c *PwmInit) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 0:
			return f.u8(&c.Slice)
		case 1:
			return f.optU8(&c.PinA)
		case 2:
			return f.optU8(&c.PinB)
		case 3:
			return f.u8(&c.Divider)
		case 4:
			return f.u16(&c.CompareA)
		case 5:
			return f.u16(&c.CompareB)
		case 6:
			return f.u16(&c.Top)
		}
		return nil
	})
}

// PwmSetDutyCyclePercent sets the duty cycle of the slice owning Pin.
type PwmSetDutyCyclePercent struct {
	Pin     uint8
	Percent uint8
}

// Tag implements Command.
func (c *PwmSetDutyCyclePercent) Tag() Tag { return TagPwmSetDutyCyclePercent }

func (c *PwmSetDutyCyclePercent) encodeBody(e *encoder) {
	e.u8(0, c.Pin)
	e.u8(1, c.Percent)
}

func (c *PwmSetDutyCyclePercent) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 0:
			return f.u8(&c.Pin)
		case 1:
			return f.u8(&c.Percent)
		}
		return nil
	})
}

// Program limits.
const (
	MaxProgramWords = 16
	ProgramBufSize  = MaxProgramWords * 2
)

// PioLoadProgram installs a program into a PIO block.
// Program holds little-endian instruction words, ProgramLen is in bytes.
type PioLoadProgram struct {
	Pio             uint8
	Program         [ProgramBufSize]byte
	ProgramLen      uint8
	Origin          *uint8
	WrapSource      uint8
	WrapTarget      uint8
	SideSetOptional bool
	SideSetBits     uint8
	SideSetPindirs  bool
	VersionV0       bool
}

// NewPioLoadProgram packs instruction words into a PioLoadProgram.
// Words beyond MaxProgramWords are dropped.
func NewPioLoadProgram(pio uint8, words []uint16) *PioLoadProgram {
	c := &PioLoadProgram{Pio: pio}
	if len(words) > MaxProgramWords {
		words = words[:MaxProgramWords]
	}
	for n, w := range words {
		binary.LittleEndian.PutUint16(c.Program[n*2:], w)
	}
	c.ProgramLen = uint8(len(words) * 2)
	return c
}

// Words reconstructs exactly ProgramLen/2 instruction words.
func (c *PioLoadProgram) Words() []uint16 {
	count := int(c.ProgramLen) / 2
	if count > MaxProgramWords {
		count = MaxProgramWords
	}
	words := make([]uint16, count)
	for n := range words {
		words[n] = binary.LittleEndian.Uint16(c.Program[n*2:])
	}
	return words
}

// Tag implements Command.
func (c *PioLoadProgram) Tag() Tag { return TagPioLoadProgram }

func (c *PioLoadProgram) encodeBody(e *encoder) {
	e.u8(0, c.Pio)
	e.bytes(1, c.Program[:])
	e.u8(2, c.ProgramLen)
	e.optU8(3, c.Origin)
	e.u8(4, c.WrapSource)
	e.u8(5, c.WrapTarget)
	e.boolean(6, c.SideSetOptional)
	e.u8(7, c.SideSetBits)
	e.boolean(8, c.SideSetPindirs)
	e.boolean(9, c.VersionV0)
}

func (c *PioLoadProgram) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		switch f.key {
		case 0:
			return f.u8(&c.Pio)
		case 1:
			p, err := f.bytesOrGroup(TypeBytes)
			if err != nil {
				return err
			}
			c.Program = [ProgramBufSize]byte{}
			copy(c.Program[:], p)
		case 2:
			return f.u8(&c.ProgramLen)
		case 3:
			return f.optU8(&c.Origin)
		case 4:
			return f.u8(&c.WrapSource)
		case 5:
			return f.u8(&c.WrapTarget)
		case 6:
			return f.boolean(&c.SideSetOptional)
		case 7:
			return f.u8(&c.SideSetBits)
		case 8:
			return f.boolean(&c.SideSetPindirs)
		case 9:
			return f.boolean(&c.VersionV0)
		}
		return nil
	})
}

// encodeSM writes the addressing fields shared by state machine commands.
func encodeSM(e *encoder, pio, sm uint8) {
	e.u8(0, pio)
	e.u8(1, sm)
}

func decodeSM(f *field, pio, sm *uint8) (bool, error) {
	switch f.key {
	case 0:
		return true, f.u8(pio)
	case 1:
		return true, f.u8(sm)
	}
	return false, nil
}

// PioSmInit binds Pin to a state machine running the block's loaded program.
type PioSmInit struct {
	Pio uint8
	Sm  uint8
	Pin uint8
}

// Tag implements Command.
func (c *PioSmInit) Tag() Tag { return TagPioSmInit }

func (c *PioSmInit) encodeBody(e *encoder) {
	encodeSM(e, c.Pio, c.Sm)
	e.u8(2, c.Pin)
}

func (c *PioSmInit) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if ok, err := decodeSM(f, &c.Pio, &c.Sm); ok {
			return err
		}
		if f.key == 2 {
			return f.u8(&c.Pin)
		}
		return nil
	})
}

// PioSmSetEnable starts or stops a state machine.
type PioSmSetEnable struct {
	Pio    uint8
	Sm     uint8
	Enable bool
}

// Tag implements Command.
func (c *PioSmSetEnable) Tag() Tag { return TagPioSmSetEnable }

func (c *PioSmSetEnable) encodeBody(e *encoder) {
	encodeSM(e, c.Pio, c.Sm)
	e.boolean(2, c.Enable)
}

func (c *PioSmSetEnable) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if ok, err := decodeSM(f, &c.Pio, &c.Sm); ok {
			return err
		}
		if f.key == 2 {
			return f.boolean(&c.Enable)
		}
		return nil
	})
}

// PioSmPush pushes one word into a state machine's TX FIFO.
type PioSmPush struct {
	Pio  uint8
	Sm   uint8
	Word uint32
}

// Tag implements Command.
func (c *PioSmPush) Tag() Tag { return TagPioSmPush }

func (c *PioSmPush) encodeBody(e *encoder) {
	encodeSM(e, c.Pio, c.Sm)
	e.u32(2, c.Word)
}

func (c *PioSmPush) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if ok, err := decodeSM(f, &c.Pio, &c.Sm); ok {
			return err
		}
		if f.key == 2 {
			return f.u32(&c.Word)
		}
		return nil
	})
}

// PioSmExecInstr executes one raw instruction on a state machine,
// bypassing its program. The instruction is not validated.
type PioSmExecInstr struct {
	Pio   uint8
	Sm    uint8
	Instr uint16
}

// Tag implements Command.
func (c *PioSmExecInstr) Tag() Tag { return TagPioSmExecInstr }

func (c *PioSmExecInstr) encodeBody(e *encoder) {
	encodeSM(e, c.Pio, c.Sm)
	e.u16(2, c.Instr)
}

func (c *PioSmExecInstr) decodeBody(data []byte) error {
	return decodeFields(data, func(f *field) error {
		if ok, err := decodeSM(f, &c.Pio, &c.Sm); ok {
			return err
		}
		if f.key == 2 {
			return f.u16(&c.Instr)
		}
		return nil
	})
}

// UnknownCommand keeps a command whose tag this package doesn't know.
type UnknownCommand struct {
	Kind Tag
	Body []byte
}

// Tag implements Command.
func (c *UnknownCommand) Tag() Tag { return c.Kind }

func (c *UnknownCommand) encodeBody(e *encoder) {
	e.raw(c.Body)
}

func (c *UnknownCommand) decodeBody(data []byte) error {
	c.Body = append([]byte(nil), data...)
	return nil
}
