// Command mentorctl administers a mentor database: plans and feature grants, upgrade
// requests, API tokens and the stage catalog.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
