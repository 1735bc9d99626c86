// Command providerd tracks automation-resource components in a directory and
// feeds them to the module type, template and rule consumers.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "providerd:", err)
		os.Exit(1)
	}
}
