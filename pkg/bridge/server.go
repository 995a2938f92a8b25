package bridge

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge/msgs"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/wire"
)

// Server forwards commands received from clients to a device.
type Server struct {
	Device host.Device
}

// NewServer creates a Server for the device.
func NewServer(dev host.Device) *Server {
	return &Server{Device: dev}
}

// Serve processes commands from one client until the connection breaks
// or ctx is done. Commands reach the device in order of arrival when it
// is a host.Caller, and queries are answered as their results arrive.
func (s *Server) Serve(ctx context.Context, rw PacketReadWriter) error {
	pipe := NewPipe(rw)
	pipe.Handler = HandleTypedFunc(func(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
		return s.handle(ctx, pipe, msg, typed)
	})
	return pipe.Run(ctx)
}

func (s *Server) handle(ctx context.Context, pipe *Pipe, msg msgs.Message, typed *msgs.Typed) error {
	if typed.IsReply() {
		glog.V(2).Infof("ignore reply %x from client", typed.TypeId)
		return nil
	}
	cmdMsg, ok := msg.(msgs.CommandMessage)
	if !ok {
		return s.replyErr(pipe, typed.Sequence, msgs.ErrUnsupportedCommand)
	}
	cmd, err := cmdMsg.Command()
	if err != nil {
		return s.replyErr(pipe, typed.Sequence, err)
	}
	if typed.Sequence == 0 {
		if err := s.Device.Send(ctx, cmd); err != nil {
			glog.Warningf("send %s: %v", cmd.Tag(), err)
		}
		return nil
	}
	seq := typed.Sequence
	if caller, ok := s.Device.(host.Caller); ok {
		call := caller.Do(ctx, cmd)
		go func() {
			select {
			case res := <-call.ResultChan():
				s.reply(pipe, cmd, seq, res.Result, res.Err)
			case <-ctx.Done():
			}
		}()
		return nil
	}
	go func() {
		res, err := s.Device.Query(ctx, cmd)
		s.reply(pipe, cmd, seq, res, err)
	}()
	return nil
}

func (s *Server) reply(pipe *Pipe, cmd wire.Command, seq uint32, res wire.Result, err error) {
	var reply msgs.Message
	if err != nil {
		reply = msgs.NewCommandErr(err)
	} else {
		reply = msgs.NewResult(res)
	}
	if err := pipe.SendMsg(reply, seq); err != nil {
		glog.Warningf("reply %s: %v", cmd.Tag(), err)
	}
}

func (s *Server) replyErr(pipe *Pipe, seq uint32, err error) error {
	if seq == 0 {
		glog.Warningf("drop command: %v", err)
		return nil
	}
	return pipe.SendMsg(msgs.NewCommandErr(err), seq)
}
