package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/copi/pkg/bridge/pb"
)

// TypeID masks
const (
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// TypeID Groups
const (
	GroupReply  uint32 = 0x00000000
	GroupDevice uint32 = 0x00010000
)

// Reply TypeIDs
const (
	ResultTypeID     uint32 = GroupReply | TypeIDMaskReply | 0x0000
	CommandErrTypeID uint32 = GroupReply | TypeIDMaskReply | 0x0001
)

// Typed wraps a message with type information.
type Typed struct {
	pb.Typed
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrUnsupportedCommand indicates the command can't be carried over the bridge.
var ErrUnsupportedCommand = errors.New("unsupported command")

// Message can be carried in a Typed envelope.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
	TypeID() uint32
	Serializable() proto.Message
}

// MessageTypes are predefined mapping of type ID to messages.
var MessageTypes = map[uint32]Message{
	ResultTypeID:     (*Result)(nil),
	CommandErrTypeID: (*CommandErr)(nil),
}

func registerTypes(msgs ...Message) {
	for _, msg := range msgs {
		MessageTypes[msg.TypeID()] = msg
	}
}

// TypedFrom creates a Typed from a message.
func TypedFrom(msg Message, seq uint32) (*Typed, error) {
	data, err := proto.Marshal(msg.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{Typed: pb.Typed{TypeId: msg.TypeID(), Sequence: seq, Message: data}}, nil
}

// Decode decodes the packet into actual message.
func (p *Typed) Decode() (Message, error) {
	msgType, ok := MessageTypes[p.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(p.Message, msg.Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(&p.Typed)
}

// IsReply determines if the message replies a command.
func (p *Typed) IsReply() bool {
	return p.TypeId&TypeIDMaskReply != 0
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed.Typed); err != nil {
		return nil, err
	}
	return &typed, nil
}
