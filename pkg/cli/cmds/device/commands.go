// Package device adds one shell command per device command.
package device

import (
	"fmt"
	"sort"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/copi/pkg/cli/sh"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/wire"
)

// Usage of each command.
var Usage = map[string]string{
	"version":       "",
	"freq":          "",
	"gpio.init":     "PIN [VALUE]",
	"gpio.set":      "PIN STATE",
	"gpio.get":      "PIN",
	"pwm.init":      "SLICE PIN_A|- PIN_B|- DIV CMP_A CMP_B TOP",
	"pwm.duty":      "PIN PERCENT",
	"pio.load":      "[-origin N] [-wrap SRC:TGT] [-sideset BITS] [-sideset-opt] [-sideset-pindirs] [-v0] PIO INSTR...",
	"pio.sm.init":   "PIO SM PIN",
	"pio.sm.enable": "PIO SM ENABLE",
	"pio.sm.push":   "PIO SM WORD",
	"pio.sm.exec":   "PIO SM INSTR",
}

func queryCmd(name string, parse Parser) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: Usage[name],
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			cmd, err := parse(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if name == "version" {
				queryVersion(c)
				return
			}
			sh.Query(c, cmd)
		}),
	}
}

func queryVersion(c *ishell.Context) {
	s := sh.ShellFrom(c)
	ctx, cancel := sh.CommandContext(s)
	defer cancel()
	ver, err := host.FirmwareVersion(ctx, s.Session.Client)
	if err != nil {
		c.Err(err)
		return
	}
	s.Print(c, map[string]string{"firmware": ver}, ver)
}

var (
	// SendCmd sends a device command without waiting for its result.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "COMMAND ARGS...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("%w: COMMAND required", ErrUsage))
				return
			}
			parse, ok := Parsers[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unknown command %q", c.Args[0]))
				return
			}
			cmd, err := parse(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Send(c, cmd)
		}),
	}
)

// Names returns the sorted command names.
func Names() []string {
	names := make([]string, 0, len(Parsers))
	for name := range Parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse builds a command from a shell command line.
func Parse(name string, args []string) (wire.Command, error) {
	parse, ok := Parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	return parse(args)
}

func init() {
	for _, name := range Names() {
		sh.AddCmds(queryCmd(name, Parsers[name]))
	}
	sh.AddCmds(&SendCmd)
}
