package main

import (
	"os"

	"github.com/wpsleuth/wpsleuth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
