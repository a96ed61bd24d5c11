package main

import (
	"log/slog"
	"os"

	"github.com/lpernett/godotenv"
)

func main() {
	// Local development keeps secrets in a .env file.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
