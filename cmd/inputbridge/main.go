package main

import (
	"github.com/larsks/inputbridge/internal/bridge"
	"github.com/larsks/inputbridge/internal/cli"
)

func main() {
	cli.StandardMain(func() cli.Configurable { return bridge.NewConfig() }, bridge.NewHandler())
}
