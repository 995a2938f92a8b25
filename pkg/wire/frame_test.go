package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestStep struct {
	in      []byte // nil means timeout
	payload []byte
	dropped int
	recv    bool
}

type parserTestSteps struct {
	steps []parserTestStep
}

func parserSteps() *parserTestSteps {
	return &parserTestSteps{}
}

func (s *parserTestSteps) feed(in ...byte) *parserTestSteps {
	s.steps = append(s.steps, parserTestStep{in: in})
	return s
}

func (s *parserTestSteps) timeout() *parserTestSteps {
	s.steps = append(s.steps, parserTestStep{})
	return s
}

func (s *parserTestSteps) frame(payload ...byte) *parserTestSteps {
	s.steps[len(s.steps)-1].payload = payload
	return s
}

func (s *parserTestSteps) dropped(n int) *parserTestSteps {
	s.steps[len(s.steps)-1].dropped = n
	return s
}

func (s *parserTestSteps) receiving() *parserTestSteps {
	s.steps[len(s.steps)-1].recv = true
	return s
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		steps *parserTestSteps
	}{
		{
			name: "single frame",
			steps: parserSteps().
				feed(FrameStart, 3, 1, 2, 3).frame(1, 2, 3),
		},
		{
			name: "back to back frames",
			steps: parserSteps().
				feed(FrameStart, 1, 9).frame(9).
				feed(FrameStart, 2, 7, 8).frame(7, 8),
		},
		{
			name: "partial frame",
			steps: parserSteps().
				feed(FrameStart, 4, 1).receiving().
				feed(2, 3).receiving().
				feed(4).frame(1, 2, 3, 4),
		},
		{
			name: "skip garbage before start",
			steps: parserSteps().
				feed(0x00).dropped(1).
				feed(0xff).dropped(1).
				feed(FrameStart, 1, 5).frame(5),
		},
		{
			name: "zero length",
			steps: parserSteps().
				feed(FrameStart, 0).dropped(2).
				feed(FrameStart, 1, 5).frame(5),
		},
		{
			name: "length beyond ceiling",
			steps: parserSteps().
				feed(FrameStart, MaxPayloadSize+1).dropped(2).
				feed(FrameStart, MaxPayloadSize).receiving(),
		},
		{
			name: "timeout drops partial frame",
			steps: parserSteps().
				feed(FrameStart, 3, 1).receiving().
				timeout().dropped(3).
				feed(FrameStart, 1, 6).frame(6),
		},
		{
			name: "timeout when idle",
			steps: parserSteps().
				timeout().
				feed(FrameStart).receiving().
				timeout().dropped(1),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, step := range tc.steps.steps {
				var pr ParseResult
				if step.in == nil {
					pr = parser.Timeout()
				} else {
					dropped := 0
					for i, b := range step.in {
						pr = parser.Parse(b)
						dropped += pr.Dropped
						if i+1 < len(step.in) {
							require.Nilf(t, pr.Payload, "step[%d][%d] unexpected frame", n, i)
						}
					}
					pr.Dropped = dropped
				}
				require.Equalf(t, step.dropped, pr.Dropped, "step[%d] dropped mismatch", n)
				require.Equalf(t, step.recv, pr.Receiving, "step[%d] receiving mismatch", n)
				if step.payload != nil {
					require.Equalf(t, step.payload, pr.Payload, "step[%d] frame mismatch", n)
				} else {
					require.Nilf(t, pr.Payload, "step[%d] unexpected frame", n)
				}
			}
		})
	}
}

func TestParserTimer(t *testing.T) {
	var parser Parser
	require.Equal(t, TimerRestart, parser.Parse(FrameStart).WhatAboutTimer())
	require.Equal(t, TimerRestart, parser.Parse(1).WhatAboutTimer())
	require.Equal(t, TimerStop, parser.Parse(1).WhatAboutTimer())
}

func TestParseEncodedRequest(t *testing.T) {
	frame, err := EncodeRequest(&Request{ID: 42, Command: &PioSmPush{Pio: 1, Sm: 2, Word: 3}})
	require.NoError(t, err)
	var (
		parser Parser
		pr     ParseResult
	)
	for _, b := range append([]byte{0x55, 0xaa}, frame...) {
		pr = parser.Parse(b)
	}
	require.NotNil(t, pr.Payload)
	req, err := DecodeRequest(pr.Payload)
	require.NoError(t, err)
	require.Equal(t, uint16(42), req.ID)
	require.Equal(t, &PioSmPush{Pio: 1, Sm: 2, Word: 3}, req.Command)
}
