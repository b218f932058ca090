// Package main provides the partsplit CLI tool for splitting large
// line-oriented files into smaller part files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
