package main

import (
	"os"

	"github.com/bnema/drawloop/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
