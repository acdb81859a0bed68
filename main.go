// Package main runs the American option pricer
package main

import (
	"fmt"
	"os"

	"amoption/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
