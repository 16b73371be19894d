// Package main is the entry point for drtvfeed.
package main

import (
	"os"

	"github.com/voyagen/drtvfeed/cmd/drtvfeed/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
