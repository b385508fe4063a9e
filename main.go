package main

import (
	"fmt"
	"os"

	"github.com/sgva-ao/sgva/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
