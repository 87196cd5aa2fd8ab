package main

import (
	"os"

	"github.com/junosixteen/questengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
