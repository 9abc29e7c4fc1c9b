package main

import (
	"os"

	"github.com/Algor1tm/Athena-sub002/cmd/athena-tex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
