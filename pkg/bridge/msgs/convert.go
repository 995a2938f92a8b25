package msgs

import (
	"fmt"
	"math"

	"github.com/golang/protobuf/ptypes/wrappers"

	"github.com/robotalks/copi/pkg/bridge/pb"
	"github.com/robotalks/copi/pkg/wire"
)

// FieldRangeError indicates a field value too large for the device command.
type FieldRangeError struct {
	Field string
	Value uint64
	Max   uint64
}

// Error implements error.
func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("field %s: %d exceeds %d", e.Field, e.Value, e.Max)
}

// narrower converts protobuf fields into device field widths,
// keeping the first overflow.
type narrower struct {
	err error
}

func (n *narrower) check(field string, v, max uint64) {
	if v > max && n.err == nil {
		n.err = &FieldRangeError{Field: field, Value: v, Max: max}
	}
}

func (n *narrower) u8(field string, v uint32) uint8 {
	n.check(field, uint64(v), math.MaxUint8)
	return uint8(v)
}

func (n *narrower) u16(field string, v uint32) uint16 {
	n.check(field, uint64(v), math.MaxUint16)
	return uint16(v)
}

func (n *narrower) optU8(field string, v *wrappers.UInt32Value) *uint8 {
	if v == nil {
		return nil
	}
	return wire.U8(n.u8(field, v.Value))
}

func optU32(v *uint8) *wrappers.UInt32Value {
	if v == nil {
		return nil
	}
	return &wrappers.UInt32Value{Value: uint32(*v)}
}

// Command implements CommandMessage.
func (m *Version) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.Version{
		Major: n.u16("major", m.Major),
		Minor: n.u16("minor", m.Minor),
		Patch: n.u16("patch", m.Patch),
	}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *GetCpuFrequency) Command() (wire.Command, error) {
	return &wire.GetCpuFrequency{Freq: m.Freq}, nil
}

// Command implements CommandMessage.
func (m *GpioOutputInit) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.GpioOutputInit{Pin: n.u8("pin", m.Pin), Value: m.Value}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *GpioOutputSet) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.GpioOutputSet{Pin: n.u8("pin", m.Pin), State: m.State}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *GpioOutputGet) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.GpioOutputGet{Pin: n.u8("pin", m.Pin)}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PwmInit) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PwmInit{
		Slice:    n.u8("slice", m.Slice),
		PinA:     n.optU8("pin_a", m.PinA),
		PinB:     n.optU8("pin_b", m.PinB),
		Divider:  n.u8("divider", m.Divider),
		CompareA: n.u16("compare_a", m.CompareA),
		CompareB: n.u16("compare_b", m.CompareB),
		Top:      n.u16("top", m.Top),
	}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PwmSetDutyCyclePercent) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PwmSetDutyCyclePercent{Pin: n.u8("pin", m.Pin), Percent: n.u8("percent", m.Percent)}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PioLoadProgram) Command() (wire.Command, error) {
	var n narrower
	n.check("instructions", uint64(len(m.Instructions)), wire.MaxProgramWords)
	words := make([]uint16, len(m.Instructions))
	for i, instr := range m.Instructions {
		words[i] = n.u16("instructions", instr)
	}
	cmd := wire.NewPioLoadProgram(n.u8("pio", m.Pio), words)
	cmd.Origin = n.optU8("origin", m.Origin)
	cmd.WrapSource = n.u8("wrap_source", m.WrapSource)
	cmd.WrapTarget = n.u8("wrap_target", m.WrapTarget)
	cmd.SideSetOptional = m.SideSetOptional
	cmd.SideSetBits = n.u8("side_set_bits", m.SideSetBits)
	cmd.SideSetPindirs = m.SideSetPindirs
	cmd.VersionV0 = m.VersionV0
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PioSmInit) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PioSmInit{Pio: n.u8("pio", m.Pio), Sm: n.u8("sm", m.Sm), Pin: n.u8("pin", m.Pin)}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PioSmSetEnable) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PioSmSetEnable{Pio: n.u8("pio", m.Pio), Sm: n.u8("sm", m.Sm), Enable: m.Enable}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PioSmPush) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PioSmPush{Pio: n.u8("pio", m.Pio), Sm: n.u8("sm", m.Sm), Word: m.Word}
	return cmd, n.err
}

// Command implements CommandMessage.
func (m *PioSmExecInstr) Command() (wire.Command, error) {
	var n narrower
	cmd := &wire.PioSmExecInstr{Pio: n.u8("pio", m.Pio), Sm: n.u8("sm", m.Sm), Instr: n.u16("instr", m.Instr)}
	return cmd, n.err
}

// FromCommand wraps a device command into a message.
func FromCommand(cmd wire.Command) (CommandMessage, error) {
	switch c := cmd.(type) {
	case *wire.Version:
		return &Version{pb.Version{Major: uint32(c.Major), Minor: uint32(c.Minor), Patch: uint32(c.Patch)}}, nil
	case *wire.GetCpuFrequency:
		return &GetCpuFrequency{pb.GetCpuFrequency{Freq: c.Freq}}, nil
	case *wire.GpioOutputInit:
		return &GpioOutputInit{pb.GpioOutputInit{Pin: uint32(c.Pin), Value: c.Value}}, nil
	case *wire.GpioOutputSet:
		return &GpioOutputSet{pb.GpioOutputSet{Pin: uint32(c.Pin), State: c.State}}, nil
	case *wire.GpioOutputGet:
		return &GpioOutputGet{pb.GpioOutputGet{Pin: uint32(c.Pin)}}, nil
	case *wire.PwmInit:
		return &PwmInit{pb.PwmInit{
			Slice:    uint32(c.Slice),
			PinA:     optU32(c.PinA),
			PinB:     optU32(c.PinB),
			Divider:  uint32(c.Divider),
			CompareA: uint32(c.CompareA),
			CompareB: uint32(c.CompareB),
			Top:      uint32(c.Top),
		}}, nil
	case *wire.PwmSetDutyCyclePercent:
		return &PwmSetDutyCyclePercent{pb.PwmSetDutyCyclePercent{Pin: uint32(c.Pin), Percent: uint32(c.Percent)}}, nil
	case *wire.PioLoadProgram:
		words := c.Words()
		instrs := make([]uint32, len(words))
		for n, w := range words {
			instrs[n] = uint32(w)
		}
		return &PioLoadProgram{pb.PioLoadProgram{
			Pio:             uint32(c.Pio),
			Instructions:    instrs,
			Origin:          optU32(c.Origin),
			WrapSource:      uint32(c.WrapSource),
			WrapTarget:      uint32(c.WrapTarget),
			SideSetOptional: c.SideSetOptional,
			SideSetBits:     uint32(c.SideSetBits),
			SideSetPindirs:  c.SideSetPindirs,
			VersionV0:       c.VersionV0,
		}}, nil
	case *wire.PioSmInit:
		return &PioSmInit{pb.PioSmInit{Pio: uint32(c.Pio), Sm: uint32(c.Sm), Pin: uint32(c.Pin)}}, nil
	case *wire.PioSmSetEnable:
		return &PioSmSetEnable{pb.PioSmSetEnable{Pio: uint32(c.Pio), Sm: uint32(c.Sm), Enable: c.Enable}}, nil
	case *wire.PioSmPush:
		return &PioSmPush{pb.PioSmPush{Pio: uint32(c.Pio), Sm: uint32(c.Sm), Word: c.Word}}, nil
	case *wire.PioSmExecInstr:
		return &PioSmExecInstr{pb.PioSmExecInstr{Pio: uint32(c.Pio), Sm: uint32(c.Sm), Instr: uint32(c.Instr)}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Tag())
}
