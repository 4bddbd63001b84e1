package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/storage"
)

// maxPlayFile caps the size of a played file.
const maxPlayFile = 256 << 20

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a WAV file on the speakers",
	Long: `Play a 16-bit PCM WAV file. The file may be a local path, an http(s)
URL or s3://bucket/key.

Examples:
  kittentts play hello.wav
  kittentts play s3://clips/upload.wav`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		fs, name, err := storage.OpenFile(ctx, args[0], s.storageOptions())
		if err != nil {
			return err
		}
		data, err := storage.ReadAll(ctx, fs, name, maxPlayFile)
		if err != nil {
			return err
		}
		player, err := newSpeakerPlayer(s.OutputRate, slog.Default())
		if err != nil {
			return err
		}
		defer closeSpeakers(slog.Default())
		if err := player.Play(ctx, data); err != nil {
			return fmt.Errorf("play %s: %w", args[0], err)
		}
		return nil
	},
}
