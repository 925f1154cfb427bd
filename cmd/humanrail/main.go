// Package main is the entry point for the humanrail CLI.
package main

import (
	"fmt"
	"os"

	"github.com/prime001/humanrail-sdk/cmd/humanrail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
