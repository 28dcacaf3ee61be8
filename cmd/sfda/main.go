package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Optional .env for local overrides; absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
