package main

import (
	"os"

	"chatctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
