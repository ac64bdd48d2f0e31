// Command signet manages wallet mnemonics and encrypted key backups offline.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(newTermPrompter(os.Stdin, os.Stderr))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
