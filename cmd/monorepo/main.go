package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/sublime-tools/monorepo/internal/cli"
)

func main() {
	if err := fang.Execute(context.Background(), cli.RootCmd); err != nil {
		os.Exit(1)
	}
}
