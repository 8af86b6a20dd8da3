// Command forecaster is the stock price prediction dashboard and CLI.
package main

import (
	"context"
	"os"

	"github.com/fatih/color"

	"stock-forecaster/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
