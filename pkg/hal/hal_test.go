package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDutyCycle(t *testing.T) {
	testCases := []struct {
		top     uint16
		percent uint8
		duty    uint16
	}{
		{99, 0, 0},
		{99, 50, 50},
		{99, 100, 100},
		{0xffff, 100, 0xffff},
		{0xffff, 50, 0x8000},
		{1000, 33, 330},
	}
	for _, tc := range testCases {
		duty, err := DutyCycle(tc.top, tc.percent)
		require.NoError(t, err)
		assert.Equal(t, tc.duty, duty, "top %d percent %d", tc.top, tc.percent)
	}
	_, err := DutyCycle(99, 101)
	assert.Equal(t, ErrDutyCycleRange, err)
}

func TestPWMConfigPins(t *testing.T) {
	a, b := uint8(4), uint8(5)
	assert.Empty(t, (&PWMConfig{}).Pins())
	assert.Equal(t, []uint8{4}, (&PWMConfig{PinA: &a}).Pins())
	assert.Equal(t, []uint8{5}, (&PWMConfig{PinB: &b}).Pins())
	assert.Equal(t, []uint8{4, 5}, (&PWMConfig{PinA: &a, PinB: &b}).Pins())
}

func TestPWMConfigClockDiv(t *testing.T) {
	testCases := []struct {
		divider uint8
		div     uint32
	}{
		{0, 0x10},
		{1, 0x10},
		{16, 0x100},
		{255, 0xff0},
	}
	for _, tc := range testCases {
		cfg := PWMConfig{Divider: tc.divider}
		assert.Equal(t, tc.div, cfg.ClockDiv(), "divider %d", tc.divider)
	}
}
