package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
)

type voiceList struct {
	Default string   `json:"default" yaml:"default"`
	Voices  []string `json:"voices" yaml:"voices"`
}

func (l voiceList) TableHeader() []string { return []string{"VOICE", "DEFAULT"} }

func (l voiceList) TableRows() [][]string {
	rows := make([][]string, len(l.Voices))
	for i, v := range l.Voices {
		mark := ""
		if v == l.Default {
			mark = "*"
		}
		rows[i] = []string{v, mark}
	}
	return rows
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the loaded model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		a, err := openReadyApp(cmd.Context(), s, slog.Default(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if outputFormat == "" {
			outputFormat = string(cli.FormatTable)
		}
		return outputResult(voiceList{Default: a.engine.DefaultVoice(), Voices: a.engine.Voices()})
	},
}
