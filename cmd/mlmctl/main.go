package main

import (
	"os"

	"mlm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
