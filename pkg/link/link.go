// Package link moves framed envelopes across a byte stream.
//
// A Link owns both directions of one serial connection: a reader goroutine
// feeds inbound bytes to a frame parser, and the run loop drains a queue of
// outbound frames, writing one frame per Write call.
package link

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robotalks/copi/pkg/logx"
	"github.com/robotalks/copi/pkg/wire"
)

var (
	// ErrDisconnected indicates the link is closed.
	ErrDisconnected = errors.New("disconnected")
	// ErrQueueFull indicates the outbound queue has no room.
	ErrQueueFull = errors.New("outbound queue full")
)

// Defaults.
const (
	DefaultTimeout   = 100 * time.Millisecond
	DefaultQueueSize = 16
)

// FrameHandler is called with the payload of every received frame.
type FrameHandler interface {
	HandleFrame(context.Context, []byte)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, []byte)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, payload []byte) {
	f(ctx, payload)
}

// Link sends and receives frames over a byte stream.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    FrameHandler
	// Timeout drops a partially received frame when no byte arrives in time.
	Timeout time.Duration

	outCh     chan *outFrame
	doneCh    chan struct{}
	closeOnce sync.Once
	err       error
	errLock   sync.Mutex

	parser    wire.Parser
	syncTimer <-chan time.Time
}

type outFrame struct {
	data   []byte
	result chan error // nil for posted frames
}

// New creates a Link.
func New(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    DefaultTimeout,
		outCh:      make(chan *outFrame, DefaultQueueSize),
		doneCh:     make(chan struct{}),
	}
}

// Done is closed when Run exits.
func (l *Link) Done() <-chan struct{} {
	return l.doneCh
}

// Err returns the error which stopped Run, or nil while running.
func (l *Link) Err() error {
	l.errLock.Lock()
	defer l.errLock.Unlock()
	return l.err
}

// Send queues a payload and waits until it's written.
// The write error, if any, is returned to the caller.
func (l *Link) Send(ctx context.Context, payload []byte) error {
	out, err := newOutFrame(payload, true)
	if err != nil {
		return err
	}
	select {
	case l.outCh <- out:
	case <-l.doneCh:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err = <-out.result:
		return err
	case <-l.doneCh:
		select {
		case err = <-out.result:
			return err
		default:
			return ErrDisconnected
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues a payload without waiting. Write errors are logged.
func (l *Link) Post(payload []byte) error {
	out, err := newOutFrame(payload, false)
	if err != nil {
		return err
	}
	select {
	case <-l.doneCh:
		return ErrDisconnected
	default:
	}
	select {
	case l.outCh <- out:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes the link until ctx is done or reading fails.
// A read failure is returned wrapping ErrDisconnected.
func (l *Link) Run(ctx context.Context) error {
	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, chunkCh, errCh)
	for {
		// queued frames go out before more input is accepted.
		select {
		case out := <-l.outCh:
			l.write(out)
			continue
		default:
		}
		select {
		case chunk := <-chunkCh:
			for _, b := range chunk {
				l.applyParseResult(ctx, l.parser.Parse(b))
			}
		case out := <-l.outCh:
			l.write(out)
		case err := <-errCh:
			return l.shutdown(fmt.Errorf("%w: %v", ErrDisconnected, err))
		case <-ctx.Done():
			return l.shutdown(ctx.Err())
		case <-l.syncTimer:
			l.applyParseResult(ctx, l.parser.Timeout())
		}
	}
}

func newOutFrame(payload []byte, wait bool) (*outFrame, error) {
	data, err := wire.AppendFrame(make([]byte, 0, len(payload)+wire.FrameOverhead), payload)
	if err != nil {
		return nil, err
	}
	out := &outFrame{data: data}
	if wait {
		out.result = make(chan error, 1)
	}
	return out, nil
}

func (l *Link) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, wire.MaxPacketSize)
	for {
		n, err := l.ReadWriter.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (l *Link) write(out *outFrame) {
	if logx.V(3) {
		logx.Infof("TX %s", hex.EncodeToString(out.data))
	}
	_, err := l.ReadWriter.Write(out.data)
	if out.result != nil {
		out.result <- err
	} else if err != nil {
		logx.Warningf("write frame failed: %v", err)
	}
}

func (l *Link) applyParseResult(ctx context.Context, pr wire.ParseResult) {
	switch pr.WhatAboutTimer() {
	case wire.TimerRestart:
		l.syncTimer = time.After(l.Timeout)
	case wire.TimerStop:
		l.syncTimer = nil
	}
	if pr.Dropped > 0 && logx.V(2) {
		logx.Infof("dropped %d bytes", pr.Dropped)
	}
	if pr.Payload == nil {
		return
	}
	if logx.V(3) {
		logx.Infof("RX %s", hex.EncodeToString(pr.Payload))
	}
	if h := l.Handler; h != nil {
		h.HandleFrame(ctx, pr.Payload)
	}
}

func (l *Link) shutdown(err error) error {
	l.closeOnce.Do(func() {
		l.errLock.Lock()
		l.err = err
		l.errLock.Unlock()
		close(l.doneCh)
	})
	for {
		select {
		case out := <-l.outCh:
			if out.result != nil {
				out.result <- ErrDisconnected
			}
		default:
			return err
		}
	}
}
