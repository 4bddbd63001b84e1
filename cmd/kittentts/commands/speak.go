package commands

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/kitten"
)

var speakCmd = &cobra.Command{
	Use:   "speak [text...]",
	Short: "Synthesize text and play it on the speakers",
	Long: `Synthesize text and play it on the default output device.

Without text arguments, speak reads standard input and speaks each
non-empty line as it arrives.

Examples:
  kittentts speak "Good morning."
  kittentts speak --voice expr-voice-4-m --speed 0.9 "Slowly, please."
  fortune | kittentts speak`,
	RunE: runSpeak,
}

var speakFlags struct {
	voice string
	speed float32
}

func init() {
	speakCmd.Flags().StringVar(&speakFlags.voice, "voice", "", "voice name (default from context)")
	speakCmd.Flags().Float32Var(&speakFlags.speed, "speed", 1, "speech speed, greater than zero")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	s, err := getSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := openReadyApp(ctx, s, slog.Default(), appOptions{speakers: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) > 0 {
		return a.speak(ctx, strings.Join(args, " "))
	}
	return a.speakLines(ctx, os.Stdin)
}

func (a *app) speak(ctx context.Context, text string) error {
	return a.engine.Speak(ctx, text, speakFlags.voice, speakFlags.speed)
}

// speakLines speaks each line of r. Phonemization failures are logged and
// skipped so one bad line does not end the session.
func (a *app) speakLines(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		err := a.speak(ctx, line)
		var perr *kitten.PhonemizationError
		switch {
		case err == nil:
		case errors.As(err, &perr):
			a.logger.Warn("speak: skipping line", "error", err)
		default:
			return err
		}
	}
	return sc.Err()
}
