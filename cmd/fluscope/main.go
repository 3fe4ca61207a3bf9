package main

import (
	"os"

	"github.com/fluscope/fluscope/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
