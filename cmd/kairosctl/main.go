package main

import (
	"os"

	"github.com/k-negishi/kairos-scheduler/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
