package bridge

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge/msgs"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/wire"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 5 * time.Second

// ErrExpired indicates no reply arrived within the expiration.
var ErrExpired = errors.New("command expired")

// Conn is the client side of a bridge connection. It implements
// host.Device, so code written against a local Channel works remotely.
type Conn struct {
	Expiration time.Duration

	pipe     Pipe
	seq      uint32
	commands list.List
	seqMap   map[uint32]*Future
	closed   bool
	lock     sync.Mutex
}

// Future is the result of a command sent over the bridge.
type Future struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan host.Result
}

// ResultChan delivers exactly one Result.
func (f *Future) ResultChan() <-chan host.Result {
	return f.result
}

// NewConn creates a Conn over rw.
func NewConn(rw PacketReadWriter) *Conn {
	c := &Conn{Expiration: DefaultCommandExpiration}
	c.pipe.ReadWriter = rw
	c.pipe.Handler = HandleTypedFunc(c.handleTyped)
	c.seqMap = make(map[uint32]*Future)
	return c
}

// Name implements Named.
func (c *Conn) Name() string {
	return "bridge-conn"
}

// Send implements host.Device. No reply is expected.
func (c *Conn) Send(ctx context.Context, cmd wire.Command) error {
	msg, err := msgs.FromCommand(cmd)
	if err != nil {
		return err
	}
	return c.pipe.SendMsg(msg, 0)
}

// Do sends a command and returns a Future for the reply.
func (c *Conn) Do(cmd wire.Command) *Future {
	f := &Future{result: make(chan host.Result, 1)}
	msg, err := msgs.FromCommand(cmd)
	if err != nil {
		f.result <- host.Result{Err: err}
		return f
	}
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		f.result <- host.Result{Err: host.ErrDisconnected}
		return f
	}
	for {
		c.seq++
		if c.seq != 0 && c.seqMap[c.seq] == nil {
			break
		}
	}
	f.seq = c.seq
	if c.Expiration > 0 {
		f.expireAt = time.Now().Add(c.Expiration)
	}
	f.elem = c.commands.PushBack(f)
	c.seqMap[f.seq] = f
	c.lock.Unlock()

	if err := c.pipe.SendMsg(msg, f.seq); err != nil {
		c.complete(f.seq, host.Result{Err: err})
	}
	return f
}

// Query implements host.Device.
func (c *Conn) Query(ctx context.Context, cmd wire.Command) (wire.Result, error) {
	f := c.Do(cmd)
	select {
	case res := <-f.result:
		return res.Result, res.Err
	case <-ctx.Done():
		c.lock.Lock()
		c.remove(f)
		c.lock.Unlock()
		return wire.Result{}, ctx.Err()
	}
}

// Run implements Runnable. Pending and later commands fail with
// host.ErrDisconnected once it returns.
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.purgeLoop(ctx)
	err := c.pipe.Run(ctx)
	c.lock.Lock()
	c.closed = true
	var futures []*Future
	for c.commands.Len() > 0 {
		f := c.commands.Front().Value.(*Future)
		c.remove(f)
		futures = append(futures, f)
	}
	c.lock.Unlock()
	for _, f := range futures {
		f.result <- host.Result{Err: host.ErrDisconnected}
	}
	return err
}

// Close closes the underlying ReadWriter.
func (c *Conn) Close() error {
	return c.pipe.Close()
}

func (c *Conn) handleTyped(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	var res host.Result
	switch m := msg.(type) {
	case *msgs.Result:
		res.Result = m.WireResult()
	case *msgs.CommandErr:
		res.Err = m
	default:
		glog.V(2).Infof("ignore message %x", typed.TypeId)
		return nil
	}
	if !c.complete(typed.Sequence, res) {
		glog.Warningf("drop reply for unknown sequence %d", typed.Sequence)
	}
	return nil
}

func (c *Conn) complete(seq uint32, res host.Result) bool {
	c.lock.Lock()
	f := c.seqMap[seq]
	if f != nil {
		c.remove(f)
	}
	c.lock.Unlock()
	if f == nil {
		return false
	}
	f.result <- res
	return true
}

// remove must be called with lock held.
func (c *Conn) remove(f *Future) {
	if c.seqMap[f.seq] != f {
		return
	}
	c.commands.Remove(f.elem)
	delete(c.seqMap, f.seq)
}

func (c *Conn) purgeLoop(ctx context.Context) {
	if c.Expiration <= 0 {
		return
	}
	ticker := time.NewTicker(c.Expiration / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.purgeExpired(now)
		}
	}
}

func (c *Conn) purgeExpired(now time.Time) {
	var expired []*Future
	c.lock.Lock()
	for c.commands.Len() > 0 {
		f := c.commands.Front().Value.(*Future)
		if f.expireAt.After(now) {
			break
		}
		c.remove(f)
		expired = append(expired, f)
	}
	c.lock.Unlock()
	for _, f := range expired {
		f.result <- host.Result{Err: ErrExpired}
	}
}
