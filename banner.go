package main

import (
	"fmt"
	"os"

	"go_imagegen/core"

	"github.com/fatih/color"
)

// printBanner prints the startup banner to stdout.
func printBanner(version string) {
	fmt.Println()
	header := color.New(color.FgCyan, color.Bold)
	header.Println("━━━ Text-to-Image Generation Service ━━━")
	color.New(color.FgHiBlack).Printf("version %s\n", version)
	fmt.Println()
}

// printConfigError prints a configuration error with its suggested fix.
func printConfigError(err *core.ConfigError) {
	errColor := color.New(color.FgRed, color.Bold)
	errColor.Fprintf(os.Stderr, "✗ %s\n", err.Message)
	if err.Action != "" {
		color.New(color.FgYellow).Fprintf(os.Stderr, "  └─ %s\n", err.Action)
	}
}
