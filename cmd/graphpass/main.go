// Package main provides the Born graph-pass CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Born Graph Passes %s\n", version)
		return
	}

	fmt.Println("Born Graph Passes - Computation-Graph Optimization for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("Coming soon: dump, optimize, verify")
}
