package main

import (
	"os"

	"github.com/atzentis/atzentis/internal/interface/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
