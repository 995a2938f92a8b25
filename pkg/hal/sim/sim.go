// Package sim implements hal.Device in memory.
//
// The simulated chip records every peripheral operation so it can be
// inspected by tests and by the simulated device daemon.
package sim

import (
	"fmt"
	"sync"

	"github.com/robotalks/copi/pkg/hal"
)

// DefaultCPUFrequency is the clock reported by default.
const DefaultCPUFrequency = 150000000

// TxFIFODepth is the depth of a state machine TX FIFO.
const TxFIFODepth = 4

// Device is a simulated chip.
type Device struct {
	Frequency uint32

	lock    sync.Mutex
	outputs map[uint8]*Output
	pwms    map[uint8]*PWM
	blocks  [hal.NumPIOBlocks]*PIOBlock
}

// New creates a simulated chip.
func New() *Device {
	d := &Device{
		Frequency: DefaultCPUFrequency,
		outputs:   make(map[uint8]*Output),
		pwms:      make(map[uint8]*PWM),
	}
	for n := range d.blocks {
		d.blocks[n] = &PIOBlock{dev: d, index: uint8(n)}
		for i := range d.blocks[n].sms {
			d.blocks[n].sms[i] = &StateMachine{block: d.blocks[n], index: uint8(i)}
		}
	}
	return d
}

// Output implements hal.Device.
func (d *Device) Output(pin uint8, level bool) (hal.Output, error) {
	if pin >= hal.NumPins {
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	out := &Output{dev: d, Pin: pin, level: level}
	d.outputs[pin] = out
	return out, nil
}

// PWM implements hal.Device.
func (d *Device) PWM(cfg hal.PWMConfig) (hal.PWM, error) {
	if cfg.Slice >= hal.NumPWMSlices {
		return nil, fmt.Errorf("invalid pwm slice %d", cfg.Slice)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	pwm := &PWM{dev: d, Config: cfg, Pins: cfg.Pins()}
	d.pwms[cfg.Slice] = pwm
	return pwm, nil
}

// PIO implements hal.Device.
func (d *Device) PIO(block uint8) hal.PIOBlock {
	return d.blocks[block]
}

// CPUFrequency implements hal.Device.
func (d *Device) CPUFrequency() uint32 {
	return d.Frequency
}

// OutputLevel returns the level of a configured output.
func (d *Device) OutputLevel(pin uint8) (level bool, ok bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if out := d.outputs[pin]; out != nil {
		return out.level, true
	}
	return false, false
}

// PWMSlice returns a configured slice.
func (d *Device) PWMSlice(slice uint8) *PWM {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.pwms[slice]
}

// Block returns the simulated PIO block.
func (d *Device) Block(block uint8) *PIOBlock {
	return d.blocks[block]
}

// Output is a simulated output pin.
type Output struct {
	Pin   uint8
	dev   *Device
	level bool
}

// Set implements hal.Output.
func (o *Output) Set(level bool) {
	o.dev.lock.Lock()
	o.level = level
	o.dev.lock.Unlock()
}

// Get implements hal.Output.
func (o *Output) Get() bool {
	o.dev.lock.Lock()
	defer o.dev.lock.Unlock()
	return o.level
}

// PWM is a simulated PWM slice.
type PWM struct {
	Config hal.PWMConfig
	Pins   []uint8
	dev    *Device
}

// SetDutyCyclePercent implements hal.PWM.
func (p *PWM) SetDutyCyclePercent(percent uint8) error {
	duty, err := hal.DutyCycle(p.Config.Top, percent)
	if err != nil {
		return err
	}
	p.dev.lock.Lock()
	p.Config.CompareA, p.Config.CompareB = duty, duty
	p.dev.lock.Unlock()
	return nil
}

// Compare returns the current compare values.
func (p *PWM) Compare() (a, b uint16) {
	p.dev.lock.Lock()
	defer p.dev.lock.Unlock()
	return p.Config.CompareA, p.Config.CompareB
}
