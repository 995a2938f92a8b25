package sim

import (
	"errors"

	"github.com/robotalks/copi/pkg/hal"
)

// PIOBlock is a simulated PIO block with its instruction memory.
type PIOBlock struct {
	dev      *Device
	index    uint8
	memory   [hal.PIOMemorySize]uint16
	usedMask uint32
	sms      [hal.NumStateMachines]*StateMachine
	programs []hal.LoadedProgram
}

// LoadProgram implements hal.PIOBlock.
func (b *PIOBlock) LoadProgram(p *hal.Program) (hal.LoadedProgram, error) {
	count := len(p.Instructions)
	if count == 0 || count > hal.PIOMemorySize {
		return hal.LoadedProgram{}, errors.New("invalid program length")
	}
	b.dev.lock.Lock()
	defer b.dev.lock.Unlock()
	mask := uint32(1)<<count - 1
	if count == hal.PIOMemorySize {
		mask = 0xffffffff
	}
	offset := -1
	if p.Origin >= 0 {
		if int(p.Origin)+count <= hal.PIOMemorySize && b.usedMask&(mask<<uint(p.Origin)) == 0 {
			offset = int(p.Origin)
		}
	} else {
		for n := hal.PIOMemorySize - count; n >= 0; n-- {
			if b.usedMask&(mask<<uint(n)) == 0 {
				offset = n
				break
			}
		}
	}
	if offset < 0 {
		return hal.LoadedProgram{}, hal.ErrOutOfProgramSpace
	}
	for n, instr := range p.Instructions {
		b.memory[offset+n] = instr
	}
	b.usedMask |= mask << uint(offset)
	loaded := hal.LoadedProgram{Program: p, Offset: uint8(offset)}
	b.programs = append(b.programs, loaded)
	return loaded, nil
}

// StateMachine implements hal.PIOBlock.
func (b *PIOBlock) StateMachine(sm uint8) hal.StateMachine {
	return b.sms[sm]
}

// SM returns the simulated state machine.
func (b *PIOBlock) SM(sm uint8) *StateMachine {
	return b.sms[sm]
}

// Programs returns all programs loaded so far.
func (b *PIOBlock) Programs() []hal.LoadedProgram {
	b.dev.lock.Lock()
	defer b.dev.lock.Unlock()
	return append([]hal.LoadedProgram(nil), b.programs...)
}

// Memory returns a copy of the instruction memory.
func (b *PIOBlock) Memory() [hal.PIOMemorySize]uint16 {
	b.dev.lock.Lock()
	defer b.dev.lock.Unlock()
	return b.memory
}

// StateMachine is a simulated state machine.
// The TX FIFO is only drained by Pop.
type StateMachine struct {
	block    *PIOBlock
	index    uint8
	program  *hal.LoadedProgram
	pin      uint8
	enabled  bool
	txFIFO   []uint32
	executed []uint16
}

// Init implements hal.StateMachine.
func (s *StateMachine) Init(prog hal.LoadedProgram, pin uint8) error {
	s.block.dev.lock.Lock()
	defer s.block.dev.lock.Unlock()
	s.program, s.pin = &prog, pin
	s.enabled = false
	s.txFIFO = nil
	return nil
}

// SetEnabled implements hal.StateMachine.
func (s *StateMachine) SetEnabled(enabled bool) {
	s.block.dev.lock.Lock()
	s.enabled = enabled
	s.block.dev.lock.Unlock()
}

// TryPush implements hal.StateMachine.
func (s *StateMachine) TryPush(word uint32) bool {
	s.block.dev.lock.Lock()
	defer s.block.dev.lock.Unlock()
	if len(s.txFIFO) >= TxFIFODepth {
		return false
	}
	s.txFIFO = append(s.txFIFO, word)
	return true
}

// Exec implements hal.StateMachine.
func (s *StateMachine) Exec(instr uint16) {
	s.block.dev.lock.Lock()
	s.executed = append(s.executed, instr)
	s.block.dev.lock.Unlock()
}

// Pop removes the oldest word from the TX FIFO.
func (s *StateMachine) Pop() (uint32, bool) {
	s.block.dev.lock.Lock()
	defer s.block.dev.lock.Unlock()
	if len(s.txFIFO) == 0 {
		return 0, false
	}
	word := s.txFIFO[0]
	s.txFIFO = s.txFIFO[1:]
	return word, true
}

// State returns a snapshot of the state machine.
func (s *StateMachine) State() StateMachineState {
	s.block.dev.lock.Lock()
	defer s.block.dev.lock.Unlock()
	return StateMachineState{
		Program:  s.program,
		Pin:      s.pin,
		Enabled:  s.enabled,
		TxFIFO:   append([]uint32(nil), s.txFIFO...),
		Executed: append([]uint16(nil), s.executed...),
	}
}

// StateMachineState is a snapshot of a simulated state machine.
type StateMachineState struct {
	Program  *hal.LoadedProgram
	Pin      uint8
	Enabled  bool
	TxFIFO   []uint32
	Executed []uint16
}
