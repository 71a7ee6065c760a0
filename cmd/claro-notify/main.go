package main

import (
	"os"

	"github.com/claroapp/claro-notify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
