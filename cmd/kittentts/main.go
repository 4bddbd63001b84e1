// Package main provides the kittentts CLI.
//
// Usage:
//
//	kittentts [flags] <command> [args]
//
// Commands:
//
//	init     - Check resources, espeak-ng and the model, then report readiness
//	voices   - List available voices
//	synth    - Synthesize text to a WAV file (local path, http or s3 URL)
//	speak    - Synthesize text and play it on the default output device
//	play     - Play a WAV file
//	serve    - Serve the HTTP and WebSocket API
//	cache    - Inspect or clear the utterance cache
//	ctx      - Manage configuration contexts
//	version  - Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.config/kittentts/
//	Use 'kittentts ctx' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/xih/designer-search-sub000/cmd/kittentts/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
