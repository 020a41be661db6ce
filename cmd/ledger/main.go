// Command ledger validates transactions and maintains per-ticker positions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"position-ledger/internal/cli"
)

func main() {
	// A .env in the working directory is optional.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
		}
	}

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
