package main

import (
	"github.com/robotalks/copi/pkg/cli/sh"
	env "github.com/robotalks/copi/pkg/env/client"

	_ "github.com/robotalks/copi/pkg/cli/cmds/device"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
