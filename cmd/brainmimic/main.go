package main

import (
	"os"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
