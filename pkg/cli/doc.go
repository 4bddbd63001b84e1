// Package cli provides common utilities for the kittentts command-line tool.
//
// This package includes:
//   - Configuration management (contexts naming resources and backends)
//   - Output formatting (JSON, YAML, table)
//   - Batch request loading (YAML/JSON)
//   - Styled readiness reports
//
// Configuration is stored in ~/.config/<app>/ (or $XDG_CONFIG_HOME/<app>/),
// supporting multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("kittentts")
//
//	// Flags override the resolved context.
//	ctx, err := cfg.ResolveContext(name)
//
//	cli.Output(voices, cli.OutputOptions{
//	    Format: cli.FormatTable,
//	})
package cli
