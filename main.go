package main

import (
	"os"

	"sjsage522/shiftcodeworker/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
