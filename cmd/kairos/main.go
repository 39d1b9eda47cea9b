package main

import (
	"os"

	"github.com/moolen/kairos/cmd/kairos/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
