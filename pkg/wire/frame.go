package wire

import "fmt"

// Framing constants.
const (
	// MaxPacketSize is the transport packet ceiling.
	MaxPacketSize = 64
	// FrameStart marks the beginning of a frame.
	FrameStart byte = 0xc5
	// FrameOverhead is the start byte plus the length byte.
	FrameOverhead = 2
	// MaxPayloadSize is the largest envelope carried by one frame.
	MaxPayloadSize = MaxPacketSize - FrameOverhead
)

// AppendFrame appends the framed payload to dst.
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("payload %d bytes: %w", len(payload), ErrFrameTooLarge)
	}
	dst = append(dst, FrameStart, byte(len(payload)))
	return append(dst, payload...), nil
}

// EncodeRequest encodes and frames a request.
func EncodeRequest(req *Request) ([]byte, error) {
	payload, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return AppendFrame(make([]byte, 0, len(payload)+FrameOverhead), payload)
}

// EncodeResponse encodes and frames a response.
func EncodeResponse(resp *Response) ([]byte, error) {
	payload, err := resp.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return AppendFrame(make([]byte, 0, len(payload)+FrameOverhead), payload)
}

// DecodeRequest decodes a request payload.
func DecodeRequest(payload []byte) (*Request, error) {
	var req Request
	if err := req.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeResponse decodes a response payload.
func DecodeResponse(payload []byte) (*Response, error) {
	var resp Response
	if err := resp.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TimerAction defines what to do with the inter-byte timer.
type TimerAction int

const (
	// TimerNoChange keeps the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart restarts the timer.
	TimerRestart
	// TimerStop stops the timer.
	TimerStop
)

// ParseResult is the result of one parsing step.
type ParseResult struct {
	// Payload is set when a complete frame is received.
	Payload []byte
	// Dropped counts bytes discarded by this step.
	Dropped int
	// Receiving indicates a frame is partially received.
	Receiving bool
}

// WhatAboutTimer decides what to do with the timer.
// A partial frame must complete before the timer fires.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.Receiving {
		return TimerRestart
	}
	return TimerStop
}

type parseState int

const (
	stateStart parseState = iota // waiting for FrameStart
	stateLen                     // waiting for payload length
	stateData                    // waiting for payload bytes
)

// Parser splits a byte stream into frame payloads.
type Parser struct {
	state   parseState
	payload []byte
	want    int
}

// Reset drops any partial frame.
func (p *Parser) Reset() (pr ParseResult) {
	pr.Dropped = p.pending()
	p.state, p.payload = stateStart, nil
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateStart:
		if b == FrameStart {
			p.state = stateLen
		} else {
			pr.Dropped = 1
		}
	case stateLen:
		if b == 0 || int(b) > MaxPayloadSize {
			// the start byte and the length are discarded, resync on next start byte.
			pr.Dropped, p.state = 2, stateStart
			break
		}
		p.want, p.payload = int(b), make([]byte, 0, b)
		p.state = stateData
	case stateData:
		p.payload = append(p.payload, b)
		if len(p.payload) >= p.want {
			pr.Payload, p.payload = p.payload, nil
			p.state = stateStart
		}
	}
	pr.Receiving = p.state != stateStart
	return
}

// Timeout notifies the parser the timer expired.
func (p *Parser) Timeout() ParseResult {
	return p.Reset()
}

func (p *Parser) pending() int {
	switch p.state {
	case stateLen:
		return 1
	case stateData:
		return FrameOverhead + len(p.payload)
	}
	return 0
}
