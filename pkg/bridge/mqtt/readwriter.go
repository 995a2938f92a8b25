package mqtt

import (
	"context"
	"io"

	"github.com/robotalks/copi/pkg/bridge"
)

// Topic suffixes under the device name.
const (
	TopicMeta = "meta"
	TopicCmd  = "cmd"
	TopicMsg  = "msg"
)

// DeviceTopic returns the topic of a device.
func DeviceTopic(ref bridge.DeviceRef, suffix string) string {
	return ref.Name() + "/" + suffix
}

// ReadWriter implements bridge.PacketReadWriter on a pair of topics.
// It must be Run to receive packets.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	doneCh   chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		doneCh:   make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForClient subscribes to replies and publishes commands.
func (p *ReadWriter) ForClient(ref bridge.DeviceRef) *ReadWriter {
	return p.WithTopics(DeviceTopic(ref, TopicMsg), DeviceTopic(ref, TopicCmd))
}

// ForDevice subscribes to commands and publishes replies.
func (p *ReadWriter) ForDevice(ref bridge.DeviceRef) *ReadWriter {
	return p.WithTopics(DeviceTopic(ref, TopicCmd), DeviceTopic(ref, TopicMsg))
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	defer close(p.doneCh)
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.doneCh:
	}
}
