package main

import (
	"os"

	"github.com/mywatt/dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
