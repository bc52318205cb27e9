package main

import (
	"log/slog"
	"os"

	"github.com/surxe/wrfexporter/cmd/wrfexporter/commands"
)

func main() {
	// Initialize structured logger with text format for readability.
	// The run command re-levels it once the configured level is known.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	commands.Execute()
}
