package main

import (
	"github.com/larsks/inputbridge/internal/bridgectl"
	"github.com/larsks/inputbridge/internal/cli"
)

func main() {
	cli.StandardMain(func() cli.Configurable { return bridgectl.NewConfig() }, bridgectl.NewHandler())
}
