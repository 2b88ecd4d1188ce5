package main

import (
	"os"

	"radar/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
