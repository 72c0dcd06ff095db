// Command crossbase inspects and drives the capability router: which backend
// serves each group, message history, and the auth settings migration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
