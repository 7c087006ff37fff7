package main

import (
	"os"

	"github.com/majorcontext/pregrind/cmd/pregrind/cli"
)

func main() {
	os.Exit(cli.Execute())
}
