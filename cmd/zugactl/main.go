// Command zugactl checks, inspects and migrates a zuga content tree.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zugactl:", err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, "run 'zugactl --help' for usage")
			os.Exit(2)
		}
		os.Exit(1)
	}
}
