package main

import (
	"os"

	"github.com/codevanta/propgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
