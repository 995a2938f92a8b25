// Package pb holds the bridge messages declared in copi.proto, laid out
// the way protoc-gen-go v1.3 emits them.
package pb

import (
	proto "github.com/golang/protobuf/proto"
	wrappers "github.com/golang/protobuf/ptypes/wrappers"
)

// Typed is the envelope of every bridge packet.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// CommandErr reports a failure outside the device.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *CommandErr) Reset()         { *m = CommandErr{} }
func (m *CommandErr) String() string { return proto.CompactTextString(m) }
func (*CommandErr) ProtoMessage()    {}

// Result carries the device result of a command.
type Result struct {
	Code uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Data uint64 `protobuf:"varint,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *Result) Reset()         { *m = Result{} }
func (m *Result) String() string { return proto.CompactTextString(m) }
func (*Result) ProtoMessage()    {}

type Version struct {
	Major uint32 `protobuf:"varint,1,opt,name=major,proto3" json:"major,omitempty"`
	Minor uint32 `protobuf:"varint,2,opt,name=minor,proto3" json:"minor,omitempty"`
	Patch uint32 `protobuf:"varint,3,opt,name=patch,proto3" json:"patch,omitempty"`
}

func (m *Version) Reset()         { *m = Version{} }
func (m *Version) String() string { return proto.CompactTextString(m) }
func (*Version) ProtoMessage()    {}

type GetCpuFrequency struct {
	Freq uint32 `protobuf:"varint,1,opt,name=freq,proto3" json:"freq,omitempty"`
}

func (m *GetCpuFrequency) Reset()         { *m = GetCpuFrequency{} }
func (m *GetCpuFrequency) String() string { return proto.CompactTextString(m) }
func (*GetCpuFrequency) ProtoMessage()    {}

type GpioOutputInit struct {
	Pin   uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Value bool   `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *GpioOutputInit) Reset()         { *m = GpioOutputInit{} }
func (m *GpioOutputInit) String() string { return proto.CompactTextString(m) }
func (*GpioOutputInit) ProtoMessage()    {}

type GpioOutputSet struct {
	Pin   uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	State bool   `protobuf:"varint,2,opt,name=state,proto3" json:"state,omitempty"`
}

func (m *GpioOutputSet) Reset()         { *m = GpioOutputSet{} }
func (m *GpioOutputSet) String() string { return proto.CompactTextString(m) }
func (*GpioOutputSet) ProtoMessage()    {}

type GpioOutputGet struct {
	Pin uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
}

func (m *GpioOutputGet) Reset()         { *m = GpioOutputGet{} }
func (m *GpioOutputGet) String() string { return proto.CompactTextString(m) }
func (*GpioOutputGet) ProtoMessage()    {}

type PwmInit struct {
	Slice    uint32                `protobuf:"varint,1,opt,name=slice,proto3" json:"slice,omitempty"`
	PinA     *wrappers.UInt32Value `protobuf:"bytes,2,opt,name=pin_a,json=pinA,proto3" json:"pin_a,omitempty"`
	PinB     *wrappers.UInt32Value `protobuf:"bytes,3,opt,name=pin_b,json=pinB,proto3" json:"pin_b,omitempty"`
	Divider  uint32                `protobuf:"varint,4,opt,name=divider,proto3" json:"divider,omitempty"`
	CompareA uint32                `protobuf:"varint,5,opt,name=compare_a,json=compareA,proto3" json:"compare_a,omitempty"`
	CompareB uint32                `protobuf:"varint,6,opt,name=compare_b,json=compareB,proto3" json:"compare_b,omitempty"`
	Top      uint32                `protobuf:"varint,7,opt,name=top,proto3" json:"top,omitempty"`
}

func (m *PwmInit) Reset()         { *m = PwmInit{} }
func (m *PwmInit) String() string { return proto.CompactTextString(m) }
func (*PwmInit) ProtoMessage()    {}

type PwmSetDutyCyclePercent struct {
	Pin     uint32 `protobuf:"varint,1,opt,name=pin,proto3" json:"pin,omitempty"`
	Percent uint32 `protobuf:"varint,2,opt,name=percent,proto3" json:"percent,omitempty"`
}

func (m *PwmSetDutyCyclePercent) Reset()         { *m = PwmSetDutyCyclePercent{} }
func (m *PwmSetDutyCyclePercent) String() string { return proto.CompactTextString(m) }
func (*PwmSetDutyCyclePercent) ProtoMessage()    {}

type PioLoadProgram struct {
	Pio             uint32                `protobuf:"varint,1,opt,name=pio,proto3" json:"pio,omitempty"`
	Instructions    []uint32              `protobuf:"varint,2,rep,packed,name=instructions,proto3" json:"instructions,omitempty"`
	Origin          *wrappers.UInt32Value `protobuf:"bytes,3,opt,name=origin,proto3" json:"origin,omitempty"`
	WrapSource      uint32                `protobuf:"varint,4,opt,name=wrap_source,json=wrapSource,proto3" json:"wrap_source,omitempty"`
	WrapTarget      uint32                `protobuf:"varint,5,opt,name=wrap_target,json=wrapTarget,proto3" json:"wrap_target,omitempty"`
	SideSetOptional bool                  `protobuf:"varint,6,opt,name=side_set_optional,json=sideSetOptional,proto3" json:"side_set_optional,omitempty"`
	SideSetBits     uint32                `protobuf:"varint,7,opt,name=side_set_bits,json=sideSetBits,proto3" json:"side_set_bits,omitempty"`
	SideSetPindirs  bool                  `protobuf:"varint,8,opt,name=side_set_pindirs,json=sideSetPindirs,proto3" json:"side_set_pindirs,omitempty"`
	VersionV0       bool                  `protobuf:"varint,9,opt,name=version_v0,json=versionV0,proto3" json:"version_v0,omitempty"`
}

func (m *PioLoadProgram) Reset()         { *m = PioLoadProgram{} }
func (m *PioLoadProgram) String() string { return proto.CompactTextString(m) }
func (*PioLoadProgram) ProtoMessage()    {}

type PioSmInit struct {
	Pio uint32 `protobuf:"varint,1,opt,name=pio,proto3" json:"pio,omitempty"`
	Sm  uint32 `protobuf:"varint,2,opt,name=sm,proto3" json:"sm,omitempty"`
	Pin uint32 `protobuf:"varint,3,opt,name=pin,proto3" json:"pin,omitempty"`
}

func (m *PioSmInit) Reset()         { *m = PioSmInit{} }
func (m *PioSmInit) String() string { return proto.CompactTextString(m) }
func (*PioSmInit) ProtoMessage()    {}

type PioSmSetEnable struct {
	Pio    uint32 `protobuf:"varint,1,opt,name=pio,proto3" json:"pio,omitempty"`
	Sm     uint32 `protobuf:"varint,2,opt,name=sm,proto3" json:"sm,omitempty"`
	Enable bool   `protobuf:"varint,3,opt,name=enable,proto3" json:"enable,omitempty"`
}

func (m *PioSmSetEnable) Reset()         { *m = PioSmSetEnable{} }
func (m *PioSmSetEnable) String() string { return proto.CompactTextString(m) }
func (*PioSmSetEnable) ProtoMessage()    {}

type PioSmPush struct {
	Pio  uint32 `protobuf:"varint,1,opt,name=pio,proto3" json:"pio,omitempty"`
	Sm   uint32 `protobuf:"varint,2,opt,name=sm,proto3" json:"sm,omitempty"`
	Word uint32 `protobuf:"varint,3,opt,name=word,proto3" json:"word,omitempty"`
}

func (m *PioSmPush) Reset()         { *m = PioSmPush{} }
func (m *PioSmPush) String() string { return proto.CompactTextString(m) }
func (*PioSmPush) ProtoMessage()    {}

type PioSmExecInstr struct {
	Pio   uint32 `protobuf:"varint,1,opt,name=pio,proto3" json:"pio,omitempty"`
	Sm    uint32 `protobuf:"varint,2,opt,name=sm,proto3" json:"sm,omitempty"`
	Instr uint32 `protobuf:"varint,3,opt,name=instr,proto3" json:"instr,omitempty"`
}

func (m *PioSmExecInstr) Reset()         { *m = PioSmExecInstr{} }
func (m *PioSmExecInstr) String() string { return proto.CompactTextString(m) }
func (*PioSmExecInstr) ProtoMessage()    {}
