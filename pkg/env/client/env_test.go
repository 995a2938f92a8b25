package client

import (
	"context"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/bridge/stream"
	"github.com/robotalks/copi/pkg/wire"
)

func TestSerialPath(t *testing.T) {
	testCases := []struct {
		url, path string
	}{
		{"serial:auto", "auto"},
		{"serial:", ""},
		{"serial:///dev/ttyACM0", "/dev/ttyACM0"},
		{"serial://COM3", "COM3"},
	}
	for _, tc := range testCases {
		u, err := url.Parse(tc.url)
		require.NoError(t, err)
		assert.Equal(t, tc.path, serialPath(u), tc.url)
	}
}

func TestUnknownScheme(t *testing.T) {
	conf := NewConfig()
	conf.URL = "ftp://host"
	_, err := conf.Connect(context.Background())
	assert.Error(t, err)
	_, err = conf.NewConnector()
	assert.Error(t, err)
}

type versionDevice struct{}

func (versionDevice) Send(context.Context, wire.Command) error { return nil }

func (versionDevice) Query(context.Context, wire.Command) (wire.Result, error) {
	return wire.Result{Data: wire.PackVersion(0, 3, 0)}, nil
}

func TestConnectStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := &stream.Server{Bridge: bridge.NewServer(versionDevice{})}
	go srv.Serve(ctx, ln)

	conf := NewConfig()
	conf.URL = "tcp://" + ln.Addr().String()
	cli, err := conf.Connect(ctx)
	require.NoError(t, err)
	go cli.Run(ctx)
	res, err := cli.Query(ctx, &wire.Version{})
	require.NoError(t, err)
	assert.Equal(t, wire.PackVersion(0, 3, 0), res.Data)
}
