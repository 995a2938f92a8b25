// Package websocket carries bridge packets as binary websocket messages.
package websocket

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/copi/pkg/bridge"
)

// DefaultPath is where the daemon serves the bridge.
const DefaultPath = "/ws"

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a daemon, e.g. ws://host:8899/ws.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Handler serves each websocket client with the bridge server until
// the client leaves or ctx is done.
func Handler(ctx context.Context, srv *bridge.Server) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		glog.V(1).Infof("websocket client %s connected", conn.Request().RemoteAddr)
		err := srv.Serve(ctx, New(conn))
		glog.V(1).Infof("websocket client %s disconnected: %v", conn.Request().RemoteAddr, err)
	})
}

// Server serves the bridge over HTTP at Path.
type Server struct {
	Addr   string
	Path   string
	Bridge *bridge.Server
}

// Name implements Named.
func (s *Server) Name() string {
	return "websocket-server"
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler(ctx, s.Bridge))
	server := &http.Server{Addr: s.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	glog.Infof("websocket bridge listening on %s%s", s.Addr, path)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
