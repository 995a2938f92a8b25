// Package sh provides the interactive shell of copicli.
package sh

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/google/shlex"

	"github.com/robotalks/copi/pkg/bridge"
	env "github.com/robotalks/copi/pkg/env/client"
	"github.com/robotalks/copi/pkg/serialport"
	"github.com/robotalks/copi/pkg/wire"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive    bool
	OutputJSON     bool
	AutoConnect    bool
	CommandTimeout time.Duration

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

// Session is a running connection to a device.
type Session struct {
	Ctx    context.Context
	Cancel func()
	URL    string
	Client bridge.Client
}

// ResultOutput is the JSON form of a command result.
type ResultOutput struct {
	Code string `json:"code"`
	Data uint64 `json:"data"`
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	scriptFile string
	timeout    = time.Second

	// offlineCmds don't need a connected device.
	offlineCmds = map[string]bool{"discover": true, "list": true, "l": true, "ports": true, "connect": true, "c": true}

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&scriptFile, "f", scriptFile, "Run commands from a script file, - for stdin.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout waiting for a command result.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive:    !evalOnly && scriptFile == "",
		OutputJSON:     outputJSON,
		CommandTimeout: timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info bridge.DeviceInfo) string {
	var sb strings.Builder
	sb.WriteString(info.Ref.Name())
	if info.Meta.Firmware != "" {
		fmt.Fprintf(&sb, " firmware %s", info.Meta.Firmware)
	}
	if info.Meta.Description != "" {
		fmt.Fprintf(&sb, ": %s", info.Meta.Description)
	}
	return sb.String()
}

// FormatResult prints a result for display.
func FormatResult(res wire.Result) string {
	if res.Code == wire.OK {
		if res.Data == 0 {
			return "OK"
		}
		return fmt.Sprintf("OK %d (0x%x)", res.Data, res.Data)
	}
	return fmt.Sprintf("%s data=%d", res.Code, res.Data)
}

// Print prints v as JSON or with its text form.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) error {
	if !s.OutputJSON {
		c.Println(text)
		return nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// CommandContext bounds a command by CommandTimeout within the session.
func CommandContext(s *Shell) (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.Session.Ctx, s.CommandTimeout)
}

// Query runs a command and waits for its result.
func Query(c *ishell.Context, cmd wire.Command) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := CommandContext(s)
	defer cancel()
	res, err := s.Session.Client.Query(ctx, cmd)
	if err != nil {
		c.Err(fmt.Errorf("%s: %w", cmd.Tag(), err))
		return err
	}
	return s.Print(c, &ResultOutput{Code: res.Code.String(), Data: res.Data}, FormatResult(res))
}

// Send transmits a command without waiting for its result.
func Send(c *ishell.Context, cmd wire.Command) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := CommandContext(s)
	defer cancel()
	if err := s.Session.Client.Send(ctx, cmd); err != nil {
		c.Err(fmt.Errorf("%s: %w", cmd.Tag(), err))
		return err
	}
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover discovers devices registered on the broker.
func (s *Shell) Discover() ([]bridge.DeviceInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Discover(context.Background())
}

// Connect connects to the device using conf.
func (s *Shell) Connect(conf *env.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	cli, err := conf.Connect(ctx)
	if err != nil {
		cancel()
		return err
	}
	s.Disconnect()
	s.Session = &Session{Ctx: ctx, Cancel: cancel, URL: conf.URL, Client: cli}
	go func() {
		if err := cli.Run(ctx); err != nil && ctx.Err() == nil {
			s.Shell.Printf("disconnected: %v\n", err)
		}
	}()
	name := conf.URL
	if conf.Ref.ID != "" {
		name = conf.Ref.Name()
	}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Cancel()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// RunScript processes one command per line. Blank lines and lines
// starting with # are skipped.
func (s *Shell) RunScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := s.Shell.Process(args...); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && (len(args) == 0 || !offlineCmds[args[0]]) {
		if err := s.Connect(s.Config); err != nil {
			log.Fatalf("connect %s failed: %v", s.Config.URL, err)
		}
		defer s.Disconnect()
	}

	switch {
	case len(args) > 0:
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
	case scriptFile != "":
		in := os.Stdin
		if scriptFile != "-" {
			f, err := os.Open(scriptFile)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			in = f
		}
		if err := s.RunScript(in); err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
	default:
		log.Fatalln("command expected")
	}
}

var (
	// DiscoverCmd discovers devices registered on the MQTT broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []bridge.DeviceInfo{}
				}
				s.Print(c, infoList, "")
				return
			}
			if len(infoList) == 0 {
				c.Println("No devices found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// PortsCmd lists local serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serialport.List()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if ports == nil {
					ports = []serialport.PortInfo{}
				}
				s.Print(c, ports, "")
				return
			}
			for _, p := range ports {
				line := p.Name
				if p.USB {
					line += fmt.Sprintf(" %04x:%04x %s", p.VID, p.PID, p.Product)
					if p.Matches(serialport.DefaultVID, serialport.DefaultPID) {
						line += " *"
					}
				}
				c.Println(line)
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL | ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			conf := *s.Config
			if len(c.Args) > 0 {
				if strings.Contains(c.Args[0], ":") {
					conf.URL = c.Args[0]
				} else {
					conf.Ref.ID = c.Args[0]
				}
			}
			if err := s.Connect(&conf); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
