package main

import (
	"context"
	"os"

	"github.com/jwaldner/optionlab/cmd/root"
)

func main() {
	command := root.NewRootCommand(context.Background())
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
