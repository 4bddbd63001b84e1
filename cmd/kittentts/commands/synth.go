package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/storage"
)

var synthCmd = &cobra.Command{
	Use:   "synth [text]",
	Short: "Synthesize text to a WAV file",
	Long: `Synthesize text to a 16-bit mono WAV file.

The output may be a local path, s3://bucket/key or "-" for stdout. A batch
file (YAML or JSON) synthesizes several requests with one loaded engine.

Examples:
  kittentts synth "Hello there." -o hello.wav
  kittentts synth --voice expr-voice-3-m --speed 1.2 "Quickly now." -o - > quick.wav
  kittentts synth "Upload me." -o s3://clips/upload.wav --rate 48000
  kittentts synth -f batch.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSynth,
}

var synthFlags struct {
	output string
	voice  string
	speed  float32
	rate   int
	batch  string
}

func init() {
	f := synthCmd.Flags()
	f.StringVarP(&synthFlags.output, "output", "o", "", "output location, - for stdout")
	f.StringVar(&synthFlags.voice, "voice", "", "voice name (default from context)")
	f.Float32Var(&synthFlags.speed, "speed", 1, "speech speed, greater than zero")
	f.IntVar(&synthFlags.rate, "rate", 0, "output sample rate (default from context, else 24000)")
	f.StringVarP(&synthFlags.batch, "file", "f", "", "batch request file (YAML or JSON), - for stdin")
}

// synthResult summarizes one written file.
type synthResult struct {
	Output     string  `json:"output" yaml:"output"`
	Voice      string  `json:"voice" yaml:"voice"`
	Speed      float32 `json:"speed" yaml:"speed"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Duration   string  `json:"duration" yaml:"duration"`
	Bytes      int     `json:"bytes" yaml:"bytes"`
	Fallback   bool    `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Cached     bool    `json:"cached,omitempty" yaml:"cached,omitempty"`
}

type synthResults []synthResult

func (r synthResults) TableHeader() []string {
	return []string{"OUTPUT", "VOICE", "SPEED", "RATE", "DURATION", "SIZE"}
}

func (r synthResults) TableRows() [][]string {
	rows := make([][]string, len(r))
	for i, x := range r {
		rows[i] = []string{
			x.Output, x.Voice, fmt.Sprintf("%.2f", x.Speed),
			cli.FormatRate(x.SampleRate), x.Duration, cli.FormatBytes(int64(x.Bytes)),
		}
	}
	return rows
}

func runSynth(cmd *cobra.Command, args []string) error {
	reqs, err := synthRequests(cmd, args)
	if err != nil {
		return err
	}
	s, err := getSettings()
	if err != nil {
		return err
	}
	if synthFlags.rate != 0 {
		s.OutputRate = synthFlags.rate
	}

	ctx := cmd.Context()
	a, err := openReadyApp(ctx, s, slog.Default(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var results synthResults
	for _, req := range reqs {
		res, err := a.synthesizeTo(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %w", req.Output, err)
		}
		results = append(results, res)
	}

	// Keep stdout clean when it carries the audio.
	for _, r := range results {
		if r.Output == "-" {
			return nil
		}
	}
	return outputResult(results)
}

// synthRequests builds the request list from the batch file or from the
// positional text and flags.
func synthRequests(cmd *cobra.Command, args []string) ([]cli.SynthRequest, error) {
	if synthFlags.batch != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("text and --file are mutually exclusive")
		}
		var b cli.Batch
		if err := cli.LoadRequest(synthFlags.batch, &b); err != nil {
			return nil, err
		}
		if b.Voice == "" {
			b.Voice = synthFlags.voice
		}
		if b.Speed == 0 && cmd.Flags().Changed("speed") {
			b.Speed = synthFlags.speed
		}
		return b.Resolved()
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, fmt.Errorf("text is required")
	}
	if synthFlags.output == "" {
		return nil, fmt.Errorf("--output is required")
	}
	return []cli.SynthRequest{{
		Text:   args[0],
		Voice:  synthFlags.voice,
		Speed:  synthFlags.speed,
		Output: synthFlags.output,
	}}, nil
}

// synthesize runs one request and resamples to the output rate.
func (a *app) synthesize(ctx context.Context, text, voice string, speed float32) (*kitten.Utterance, error) {
	u, err := a.engine.Synthesize(ctx, text, voice, speed)
	if err != nil {
		return nil, err
	}
	if rate := a.settings.outputRate(); rate != u.SampleRate {
		if u, err = u.Resample(rate); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// synthesizeTo synthesizes req and writes the WAV to req.Output.
func (a *app) synthesizeTo(ctx context.Context, req cli.SynthRequest) (synthResult, error) {
	u, err := a.synthesize(ctx, req.Text, req.Voice, req.Speed)
	if err != nil {
		return synthResult{}, err
	}
	data := a.engine.Encode(u)

	if req.Output == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return synthResult{}, err
		}
	} else {
		fs, name, err := storage.OpenFile(ctx, req.Output, a.settings.storageOptions())
		if err != nil {
			return synthResult{}, err
		}
		if err := storage.WriteAll(ctx, fs, name, data); err != nil {
			return synthResult{}, err
		}
	}
	a.logger.Debug("synth: wrote", "output", req.Output, "bytes", len(data), "voice", u.Voice)

	return synthResult{
		Output:     req.Output,
		Voice:      u.Voice,
		Speed:      u.Speed,
		SampleRate: u.SampleRate,
		Duration:   cli.FormatDuration(u.Duration()),
		Bytes:      len(data),
		Fallback:   u.Fallback,
		Cached:     u.Cached,
	}, nil
}
