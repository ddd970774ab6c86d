package main

import (
	"os"

	"docdash/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
