package commands

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the utterance cache",
	Long: `Inspect and clear the utterance cache configured by cache.url or --cache.

Examples:
  kittentts cache stats --cache badger:///var/cache/kittentts
  kittentts cache clear`,
}

// cacheStats is the table view of kitten.CacheStats.
type cacheStats struct {
	URL     string         `json:"url" yaml:"url"`
	Entries int            `json:"entries" yaml:"entries"`
	Bytes   int64          `json:"bytes" yaml:"bytes"`
	Voices  map[string]int `json:"voices,omitempty" yaml:"voices,omitempty"`
}

func (c cacheStats) TableHeader() []string { return []string{"VOICE", "ENTRIES"} }

func (c cacheStats) TableRows() [][]string {
	var rows [][]string
	for _, v := range slices.Sorted(maps.Keys(c.Voices)) {
		rows = append(rows, []string{v, strconv.Itoa(c.Voices[v])})
	}
	return append(rows, []string{"total " + cli.FormatBytes(c.Bytes), strconv.Itoa(c.Entries)})
}

var errNoCache = errors.New("no cache configured: set cache.url or pass --cache")

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size per voice",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		if s.CacheURL == "" {
			return errNoCache
		}
		a, err := openApp(cmd.Context(), s, slog.Default(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.cache.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return outputResult(cacheStats{URL: s.CacheURL, Entries: st.Entries, Bytes: st.Bytes, Voices: st.Voices})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached utterance",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		if s.CacheURL == "" {
			return errNoCache
		}
		a, err := openApp(cmd.Context(), s, slog.Default(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.cache.Clear(cmd.Context())
		if err != nil {
			return err
		}
		cli.PrintSuccess("Removed %d cached utterances", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
