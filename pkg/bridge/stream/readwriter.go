// Package stream carries bridge packets over a byte stream such as TCP.
package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge"
	fx "github.com/robotalks/copi/pkg/framework"
)

// MaxPacketSize bounds the length prefix of a packet.
const MaxPacketSize = 1 << 16

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// Dial connects to a daemon listening on addr.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, fmt.Errorf("packet size %d exceeds %d", size, MaxPacketSize)
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.ReadWriter.Write(buf)
	return err
}

// Close closes the stream if it can be closed.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Server accepts TCP clients and serves each with the bridge server.
type Server struct {
	Addr   string
	Bridge *bridge.Server
}

// Name implements Named.
func (s *Server) Name() string {
	return "stream-server"
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("stream bridge listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve accepts clients from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			glog.V(1).Infof("stream client %s connected", conn.RemoteAddr())
			go func() {
				err := s.Bridge.Serve(ctx, New(conn))
				glog.V(1).Infof("stream client %s disconnected: %v", conn.RemoteAddr(), err)
			}()
		}
	})
}
