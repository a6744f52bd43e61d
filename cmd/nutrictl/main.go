// Command nutrictl runs the recommendation engine against a local SQLite
// store, the same storage the device-local deployment uses.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
