//go:build rp2350

package rp2

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"github.com/robotalks/copi/pkg/hal"
)

var pioPinModes = [hal.NumPIOBlocks]machine.PinMode{
	machine.PinPIO0,
	machine.PinPIO1,
	machine.PinPIO2,
}

type pioBlock struct {
	pio  *pio.PIO
	mode machine.PinMode
}

func (b *pioBlock) LoadProgram(p *hal.Program) (hal.LoadedProgram, error) {
	offset, err := b.pio.AddProgram(p.Instructions, p.Origin)
	if err != nil {
		return hal.LoadedProgram{}, hal.ErrOutOfProgramSpace
	}
	return hal.LoadedProgram{Program: p, Offset: offset}, nil
}

func (b *pioBlock) StateMachine(sm uint8) hal.StateMachine {
	return &stateMachine{sm: b.pio.StateMachine(sm), mode: b.mode}
}

type stateMachine struct {
	sm   pio.StateMachine
	mode machine.PinMode
}

func (s *stateMachine) Init(prog hal.LoadedProgram, pin uint8) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: s.mode})

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(prog.Offset+prog.WrapTarget, prog.Offset+prog.WrapSource)
	if bits := prog.SideSet.Bits; bits > 0 {
		cfg.SetSidesetParams(bits, prog.SideSet.Optional, prog.SideSet.Pindirs)
		cfg.SetSidesetPins(p)
	}
	s.sm.Init(prog.Offset, cfg)
	s.sm.SetConsecutivePinDirs(p, 1, true)
	return nil
}

func (s *stateMachine) SetEnabled(enabled bool) {
	s.sm.SetEnabled(enabled)
}

func (s *stateMachine) TryPush(word uint32) bool {
	if s.sm.IsTxFIFOFull() {
		return false
	}
	s.sm.TxPut(word)
	return true
}

func (s *stateMachine) Exec(instr uint16) {
	s.sm.Exec(instr)
}
