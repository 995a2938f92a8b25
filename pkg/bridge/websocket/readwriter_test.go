package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/wire"
)

type levelDevice struct{}

func (levelDevice) Send(context.Context, wire.Command) error { return nil }

func (levelDevice) Query(_ context.Context, cmd wire.Command) (wire.Result, error) {
	if get, ok := cmd.(*wire.GpioOutputGet); ok {
		return wire.Result{Data: uint64(get.Pin % 2)}, nil
	}
	return wire.Result{Code: wire.UnknownError}, nil
}

func TestWebsocketBridge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server := httptest.NewServer(Handler(ctx, bridge.NewServer(levelDevice{})))
	defer server.Close()

	rw, err := Dial("ws" + strings.TrimPrefix(server.URL, "http") + DefaultPath)
	require.NoError(t, err)
	conn := bridge.NewConn(rw)
	go conn.Run(ctx)

	qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
	defer qcancel()
	res, err := conn.Query(qctx, &wire.GpioOutputGet{Pin: 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Data)

	res, err = conn.Query(qctx, &wire.GetCpuFrequency{})
	require.NoError(t, err)
	assert.Equal(t, wire.UnknownError, res.Code)
}
