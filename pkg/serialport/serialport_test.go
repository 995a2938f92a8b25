package serialport

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", USB: true, VID: 0x2e8a, PID: 0x000a},
		{Name: "/dev/ttyACM1", USB: true, VID: DefaultVID, PID: DefaultPID},
		{Name: "/dev/ttyACM2", USB: true, VID: DefaultVID, PID: DefaultPID},
	}
	p, err := Match(ports, DefaultVID, DefaultPID)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", p.Name)

	_, err = Match(ports, 0x1234, 0x5678)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
	_, err = Match(nil, DefaultVID, DefaultPID)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
}

func TestParseID(t *testing.T) {
	testCases := []struct {
		in  string
		out uint16
		ok  bool
	}{
		{"9527", 0x9527, true},
		{"ACDC", 0xacdc, true},
		{"0xacdc", 0xacdc, true},
		{"", 0, false},
		{"12345", 0, false},
		{"zz", 0, false},
	}
	for _, tc := range testCases {
		v, err := ParseID(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, v)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestOpenTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Write([]byte{1})
			conn.Close()
		}
	}()
	rwc, err := Open("tcp://" + ln.Addr().String())
	require.NoError(t, err)
	defer rwc.Close()
	buf := make([]byte, 1)
	_, err = rwc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(1), buf[0])
}
