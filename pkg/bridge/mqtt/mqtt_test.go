package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/bridge"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		match          bool
	}{
		{"copi/a/meta", "+/+/meta", true},
		{"copi/a/cmd", "+/+/meta", false},
		{"copi/a", "+/+/meta", false},
		{"copi/a/meta/x", "+/+/meta", false},
		{"copi/a/meta", "copi/#", true},
		{"copi", "copi/#", true},
		{"other/a/meta", "copi/#", false},
		{"copi/a/meta", "copi/a/meta", true},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%s ~ %s", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@broker:1883/lab?client-id=bench")
	require.NoError(t, err)
	assert.Equal(t, "lab/", prefix)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, "bench", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("ws://broker:9001")
	require.NoError(t, err)
	assert.Empty(t, prefix)
	assert.Equal(t, "ws://broker:9001", opts.Servers[0].String())
}

func TestParseMeta(t *testing.T) {
	info, ok := ParseMeta("copi/e6614103e7/meta", []byte(`{"firmware":"0.1.0","port":"/dev/ttyACM0"}`))
	require.True(t, ok)
	assert.Equal(t, bridge.DeviceRef{Type: "copi", ID: "e6614103e7"}, info.Ref)
	assert.Equal(t, "0.1.0", info.Meta.Firmware)
	assert.Equal(t, "/dev/ttyACM0", info.Meta.Port)

	_, ok = ParseMeta("copi/e6614103e7/meta", nil)
	assert.False(t, ok)
	_, ok = ParseMeta("copi/meta", []byte(`{}`))
	assert.False(t, ok)
}

func TestReadWriterTopics(t *testing.T) {
	ref := bridge.DeviceRef{Type: "copi", ID: "x"}
	rw := NewPacketReadWriter(nil).ForDevice(ref)
	assert.Equal(t, "copi/x/cmd", rw.SubTopic)
	assert.Equal(t, "copi/x/msg", rw.PubTopic)
	rw = NewPacketReadWriter(nil).ForClient(ref)
	assert.Equal(t, "copi/x/msg", rw.SubTopic)
	assert.Equal(t, "copi/x/cmd", rw.PubTopic)
}
