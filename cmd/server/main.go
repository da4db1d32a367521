package main

import (
	"os"

	"github.com/astrathh/taskify-habitory/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
