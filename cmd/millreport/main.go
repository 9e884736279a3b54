// Package main is the entry point for the millreport CLI binary.
package main

import (
	"os"

	cli "millreport/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
