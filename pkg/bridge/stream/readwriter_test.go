package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/wire"
)

func TestPacketFraming(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	assert.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	assert.Empty(t, pkt)
}

func TestOversizedPacket(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(MaxPacketSize+1))
	_, err := New(&buf).ReadPacket()
	assert.Error(t, err)
}

type echoDevice struct{}

func (echoDevice) Send(context.Context, wire.Command) error { return nil }

func (echoDevice) Query(_ context.Context, cmd wire.Command) (wire.Result, error) {
	return wire.Result{Data: uint64(cmd.Tag())}, nil
}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{Bridge: bridge.NewServer(echoDevice{})}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	rw, err := Dial(ln.Addr().String())
	require.NoError(t, err)
	conn := bridge.NewConn(rw)
	go conn.Run(ctx)

	qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
	defer qcancel()
	res, err := conn.Query(qctx, &wire.GpioOutputGet{Pin: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(wire.TagGpioOutputGet), res.Data)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server not stopped")
	}
}
