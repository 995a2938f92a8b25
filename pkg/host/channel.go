// Package host provides the host side of the device protocol.
package host

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/link"
	"github.com/robotalks/copi/pkg/wire"
)

// ErrDisconnected indicates the link to the device is closed.
var ErrDisconnected = link.ErrDisconnected

// Device is the call surface of a connected device.
type Device interface {
	// Send transmits a command without asking for a response.
	Send(context.Context, wire.Command) error
	// Query transmits a command and waits for its result.
	Query(context.Context, wire.Command) (wire.Result, error)
}

// Caller issues a command and hands back a Call without waiting for
// the result. Calls are written in the order Do is called.
type Caller interface {
	Do(context.Context, wire.Command) *Call
}

// Result is the outcome of a Call.
type Result struct {
	wire.Result
	Err error
}

// Call represents a command waiting for its response.
type Call struct {
	id       uint16
	command  wire.Command
	resultCh chan Result
}

// ID returns the correlation id of the request.
func (c *Call) ID() uint16 {
	return c.id
}

// Command returns the command sent.
func (c *Call) Command() wire.Command {
	return c.command
}

// ResultChan returns the chan to retrieve the result.
// Exactly one Result is delivered unless the call is abandoned.
func (c *Call) ResultChan() <-chan Result {
	return c.resultCh
}

// Channel correlates requests and responses over one link.
type Channel struct {
	link    *link.Link
	ids     IDAllocator
	pending map[uint16]*Call
	closed  bool
	lock    sync.Mutex
}

// NewChannel creates a Channel over a byte stream.
func NewChannel(rw io.ReadWriter) *Channel {
	c := &Channel{
		link:    link.New(rw),
		pending: make(map[uint16]*Call),
	}
	c.link.Handler = c
	return c
}

// Link gets the wrapped Link.
func (c *Channel) Link() *link.Link {
	return c.link
}

// Name implements Named.
func (c *Channel) Name() string {
	return "device-channel"
}

// Run processes the link until it stops. All pending calls and calls
// issued afterwards fail with ErrDisconnected.
func (c *Channel) Run(ctx context.Context) error {
	err := c.link.Run(ctx)
	c.lock.Lock()
	c.closed = true
	calls := c.pending
	c.pending = make(map[uint16]*Call)
	c.lock.Unlock()
	for _, call := range calls {
		call.resultCh <- Result{Err: ErrDisconnected}
	}
	return err
}

// Send implements Device. It returns once the request has been written.
func (c *Channel) Send(ctx context.Context, cmd wire.Command) error {
	payload, err := (&wire.Request{Command: cmd}).MarshalBinary()
	if err != nil {
		return err
	}
	return c.link.Send(ctx, payload)
}

// Do sends a command and returns a Call for the result.
func (c *Channel) Do(ctx context.Context, cmd wire.Command) *Call {
	call := &Call{command: cmd, resultCh: make(chan Result, 1)}
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		call.resultCh <- Result{Err: ErrDisconnected}
		return call
	}
	call.id = c.allocID()
	c.pending[call.id] = call
	c.lock.Unlock()

	payload, err := (&wire.Request{ID: call.id, Command: cmd}).MarshalBinary()
	if err == nil {
		err = c.link.Send(ctx, payload)
	}
	if err != nil {
		c.resolve(call.id, Result{Err: err})
	}
	return call
}

// Query implements Device. It blocks until the response arrives, the link
// closes, or ctx is done.
func (c *Channel) Query(ctx context.Context, cmd wire.Command) (wire.Result, error) {
	call := c.Do(ctx, cmd)
	select {
	case res := <-call.resultCh:
		return res.Result, res.Err
	case <-ctx.Done():
		c.forget(call.id)
		return wire.Result{}, ctx.Err()
	}
}

// Pending returns the number of calls waiting for responses.
func (c *Channel) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// HandleFrame implements link.FrameHandler.
func (c *Channel) HandleFrame(ctx context.Context, payload []byte) {
	resp, err := wire.DecodeResponse(payload)
	if err != nil {
		glog.Warningf("drop malformed response: %v", err)
		return
	}
	if resp.ID == 0 {
		glog.Warning("drop response without id")
		return
	}
	if !c.resolve(resp.ID, Result{Result: resp.Result}) {
		glog.Warningf("drop response for unknown id %d", resp.ID)
	}
}

// allocID must be called with lock held.
func (c *Channel) allocID() uint16 {
	for {
		if id := c.ids.Next(); c.pending[id] == nil {
			return id
		}
	}
}

func (c *Channel) resolve(id uint16, res Result) bool {
	c.lock.Lock()
	call := c.pending[id]
	delete(c.pending, id)
	c.lock.Unlock()
	if call == nil {
		return false
	}
	call.resultCh <- res
	return true
}

func (c *Channel) forget(id uint16) {
	c.lock.Lock()
	delete(c.pending, id)
	c.lock.Unlock()
}
