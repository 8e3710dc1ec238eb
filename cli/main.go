package main

import (
	"os"

	"github.com/amesa-systems/amesa-notify/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
