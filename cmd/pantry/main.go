// Package main is the pantry command.
package main

import (
	"os"

	"github.com/mesh-intelligence/pantry/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
