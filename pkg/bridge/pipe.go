package bridge

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge/msgs"
	fx "github.com/robotalks/copi/pkg/framework"
)

// TypedHandler processes a decoded message.
type TypedHandler interface {
	HandleTyped(context.Context, msgs.Message, *msgs.Typed) error
}

// HandleTypedFunc is the func form of TypedHandler.
type HandleTypedFunc func(context.Context, msgs.Message, *msgs.Typed) error

// HandleTyped implements TypedHandler.
func (f HandleTypedFunc) HandleTyped(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	return f(ctx, msg, typed)
}

// Pipe is a bi-directional pipe for messages.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    TypedHandler

	sendLock sync.Mutex
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{ReadWriter: rw}
}

// SendMsg sends a message with the sequence.
func (p *Pipe) SendMsg(msg msgs.Message, seq uint32) error {
	typed, err := msgs.TypedFrom(msg, seq)
	if err != nil {
		return err
	}
	return p.SendTyped(typed)
}

// SendTyped send a Typed message.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. A ReadWriter which is itself Runnable
// runs alongside for the same lifetime.
func (p *Pipe) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		go runnable.Run(ctx)
	}
	return fx.RunWithContextCancel(ctx, func() { p.Close() }, func() error {
		defer p.Close()
		return p.receive(ctx)
	})
}

func (p *Pipe) receive(ctx context.Context) error {
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		typed, err := msgs.DecodeTyped(pkt)
		if err != nil {
			glog.Warningf("drop malformed packet: %v", err)
			continue
		}
		msg, err := typed.Decode()
		if err != nil {
			// a command which can't be decoded still gets a reply.
			if !typed.IsReply() && typed.Sequence != 0 {
				if err = p.SendMsg(msgs.NewCommandErr(err), typed.Sequence); err != nil {
					return err
				}
			} else {
				glog.V(2).Infof("drop packet: %v", err)
			}
			continue
		}
		if h := p.Handler; h != nil {
			if err = h.HandleTyped(ctx, msg, typed); err != nil {
				return err
			}
		}
	}
}

// Close implements Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
