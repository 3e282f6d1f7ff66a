// Command intersect replays and checks intersection observer scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/intersect/cmd/intersect/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
