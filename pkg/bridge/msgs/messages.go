package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/copi/pkg/bridge/pb"
	"github.com/robotalks/copi/pkg/wire"
)

// Result is the reply carrying the device result.
type Result struct {
	pb.Result
}

// NewResult creates a Result from a device result.
func NewResult(res wire.Result) *Result {
	return &Result{Result: pb.Result{Code: uint32(res.Code), Data: res.Data}}
}

// NewMessage implements Message.
func (m *Result) NewMessage() Message { return &Result{} }

// TypeID implements Message.
func (m *Result) TypeID() uint32 { return ResultTypeID }

// Serializable implements Message.
func (m *Result) Serializable() proto.Message { return &m.Result }

// WireResult converts back to a device result.
func (m *Result) WireResult() wire.Result {
	return wire.Result{Code: wire.ErrorCode(m.Code), Data: m.Data}
}

// CommandErr is the reply for a command that never reached the device.
type CommandErr struct {
	pb.CommandErr
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{CommandErr: pb.CommandErr{Message: err.Error()}}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() Message { return &CommandErr{} }

// TypeID implements Message.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements Message.
func (m *CommandErr) Serializable() proto.Message { return &m.CommandErr }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// CommandTypeID returns the type id carrying a device command.
func CommandTypeID(tag wire.Tag) uint32 {
	return GroupDevice | uint32(tag)
}

// CommandMessage is a message carrying a device command.
type CommandMessage interface {
	Message
	// Command converts the message into a device command.
	Command() (wire.Command, error)
}

func init() {
	registerTypes(
		(*Version)(nil), (*GetCpuFrequency)(nil), (*GpioOutputInit)(nil), (*GpioOutputSet)(nil),
		(*GpioOutputGet)(nil), (*PwmInit)(nil), (*PwmSetDutyCyclePercent)(nil), (*PioLoadProgram)(nil),
		(*PioSmInit)(nil), (*PioSmSetEnable)(nil), (*PioSmPush)(nil), (*PioSmExecInstr)(nil),
	)
}

// Version carries wire.Version.
type Version struct {
	pb.Version
}

// NewMessage implements Message.
func (m *Version) NewMessage() Message { return &Version{} }

// TypeID implements Message.
func (m *Version) TypeID() uint32 { return CommandTypeID(wire.TagVersion) }

// Serializable implements Message.
func (m *Version) Serializable() proto.Message { return &m.Version }

// GetCpuFrequency carries wire.GetCpuFrequency.
type GetCpuFrequency struct {
	pb.GetCpuFrequency
}

// NewMessage implements Message.
func (m *GetCpuFrequency) NewMessage() Message { return &GetCpuFrequency{} }

// TypeID implements Message.
func (m *GetCpuFrequency) TypeID() uint32 { return CommandTypeID(wire.TagGetCpuFrequency) }

// Serializable implements Message.
func (m *GetCpuFrequency) Serializable() proto.Message { return &m.GetCpuFrequency }

// GpioOutputInit carries wire.GpioOutputInit.
type GpioOutputInit struct {
	pb.GpioOutputInit
}

// NewMessage implements Message.
func (m *GpioOutputInit) NewMessage() Message { return &GpioOutputInit{} }

// TypeID implements Message.
func (m *GpioOutputInit) TypeID() uint32 { return CommandTypeID(wire.TagGpioOutputInit) }

// Serializable implements Message.
func (m *GpioOutputInit) Serializable() proto.Message { return &m.GpioOutputInit }

// GpioOutputSet carries wire.GpioOutputSet.
type GpioOutputSet struct {
	pb.GpioOutputSet
}

// NewMessage implements Message.
func (m *GpioOutputSet) NewMessage() Message { return &GpioOutputSet{} }

// TypeID implements Message.
func (m *GpioOutputSet) TypeID() uint32 { return CommandTypeID(wire.TagGpioOutputSet) }

// Serializable implements Message.
func (m *GpioOutputSet) Serializable() proto.Message { return &m.GpioOutputSet }

// GpioOutputGet carries wire.GpioOutputGet.
type GpioOutputGet struct {
	pb.GpioOutputGet
}

// NewMessage implements Message.
func (m *GpioOutputGet) NewMessage() Message { return &GpioOutputGet{} }

// TypeID implements Message.
func (m *GpioOutputGet) TypeID() uint32 { return CommandTypeID(wire.TagGpioOutputGet) }

// Serializable implements Message.
func (m *GpioOutputGet) Serializable() proto.Message { return &m.GpioOutputGet }

// PwmInit carries wire.PwmInit.
type PwmInit struct {
	pb.PwmInit
}

// NewMessage implements Message.
func (m *PwmInit) NewMessage() Message { return &PwmInit{} }

// TypeID implements Message.
func (m *PwmInit) TypeID() uint32 { return CommandTypeID(wire.TagPwmInit) }

// Serializable implements Message.
func (m *PwmInit) Serializable() proto.Message { return &m.PwmInit }

// PwmSetDutyCyclePercent carries wire.PwmSetDutyCyclePercent.
type PwmSetDutyCyclePercent struct {
	pb.PwmSetDutyCyclePercent
}

// NewMessage implements Message.
func (m *PwmSetDutyCyclePercent) NewMessage() Message { return &PwmSetDutyCyclePercent{} }

// TypeID implements Message.
func (m *PwmSetDutyCyclePercent) TypeID() uint32 { return CommandTypeID(wire.TagPwmSetDutyCyclePercent) }

// Serializable implements Message.
func (m *PwmSetDutyCyclePercent) Serializable() proto.Message { return &m.PwmSetDutyCyclePercent }

// PioLoadProgram carries wire.PioLoadProgram.
type PioLoadProgram struct {
	pb.PioLoadProgram
}

// NewMessage implements Message.
func (m *PioLoadProgram) NewMessage() Message { return &PioLoadProgram{} }

// TypeID implements Message.
func (m *PioLoadProgram) TypeID() uint32 { return CommandTypeID(wire.TagPioLoadProgram) }

// Serializable implements Message.
func (m *PioLoadProgram) Serializable() proto.Message { return &m.PioLoadProgram }

// PioSmInit carries wire.PioSmInit.
type PioSmInit struct {
	pb.PioSmInit
}

// NewMessage implements Message.
func (m *PioSmInit) NewMessage() Message { return &PioSmInit{} }

// TypeID implements Message.
func (m *PioSmInit) TypeID() uint32 { return CommandTypeID(wire.TagPioSmInit) }

// Serializable implements Message.
func (m *PioSmInit) Serializable() proto.Message { return &m.PioSmInit }

// PioSmSetEnable carries wire.PioSmSetEnable.
type PioSmSetEnable struct {
	pb.PioSmSetEnable
}

// NewMessage implements Message.
func (m *PioSmSetEnable) NewMessage() Message { return &PioSmSetEnable{} }

// TypeID implements Message.
func (m *PioSmSetEnable) TypeID() uint32 { return CommandTypeID(wire.TagPioSmSetEnable) }

// Serializable implements Message.
func (m *PioSmSetEnable) Serializable() proto.Message { return &m.PioSmSetEnable }

// PioSmPush carries wire.PioSmPush.
type PioSmPush struct {
	pb.PioSmPush
}

// NewMessage implements Message.
func (m *PioSmPush) NewMessage() Message { return &PioSmPush{} }

// TypeID implements Message.
func (m *PioSmPush) TypeID() uint32 { return CommandTypeID(wire.TagPioSmPush) }

// Serializable implements Message.
func (m *PioSmPush) Serializable() proto.Message { return &m.PioSmPush }

// PioSmExecInstr carries wire.PioSmExecInstr.
type PioSmExecInstr struct {
	pb.PioSmExecInstr
}

// NewMessage implements Message.
func (m *PioSmExecInstr) NewMessage() Message { return &PioSmExecInstr{} }

// TypeID implements Message.
func (m *PioSmExecInstr) TypeID() uint32 { return CommandTypeID(wire.TagPioSmExecInstr) }

// Serializable implements Message.
func (m *PioSmExecInstr) Serializable() proto.Message { return &m.PioSmExecInstr }
