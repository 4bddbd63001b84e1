package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
)

var ctxCmd = &cobra.Command{
	Use:   "ctx",
	Short: "Context management",
	Long: `Manage kittentts contexts.

Configuration is stored in ~/.config/kittentts/config.yaml. Each context
names a resource location and how the model runs on it.`,
}

var ctxAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a context",
	Long: `Add or replace a context.

Examples:
  kittentts ctx add local --resources ~/models/kitten-nano
  kittentts ctx add bucket --resources s3://models/kitten --set s3.region=us-east-1
  kittentts ctx add cached --resources ./models --set cache.url=badger:///tmp/kitten-cache --set cache.ttl=24h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		ctx := &cli.Context{Resources: overrides.resources, Backend: overrides.backend}
		if v, _ := cmd.Flags().GetString("voice"); v != "" {
			ctx.DefaultVoice = v
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		if err := applySets(ctx, sets); err != nil {
			return err
		}
		if err := cfg.AddContext(args[0], ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' added", args[0])
		return nil
	},
}

var ctxUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", args[0])
		return nil
	},
}

// contextList is the table view of the configured contexts.
type contextList struct {
	Current  string         `json:"current" yaml:"current"`
	Contexts []*cli.Context `json:"contexts" yaml:"contexts"`
}

func (l contextList) TableHeader() []string {
	return []string{"", "NAME", "RESOURCES", "VOICE", "BACKEND"}
}

func (l contextList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Contexts))
	for _, c := range l.Contexts {
		marker := ""
		if c.Name == l.Current {
			marker = "*"
		}
		rows = append(rows, []string{marker, c.Name, c.Resources, c.DefaultVoice, c.Backend})
	}
	return rows
}

var ctxListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if len(cfg.Contexts) == 0 {
			cli.PrintInfo("No contexts configured")
			return nil
		}
		l := contextList{Current: cfg.CurrentContext}
		for _, name := range cfg.ListContexts() {
			l.Contexts = append(l.Contexts, cfg.Contexts[name])
		}
		if outputFormat == "" {
			outputFormat = string(cli.FormatTable)
		}
		return outputResult(l)
	},
}

var ctxShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context, or the current one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := contextName
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" && cfg.CurrentContext == "" {
			return fmt.Errorf("no current context set")
		}
		ctx, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}
		return outputResult(ctx)
	},
}

var ctxDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a context",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", args[0])
		return nil
	},
}

var ctxSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change settings of the current context",
	Long: `Change settings of the current context, or of --context.

Keys: ` + strings.Join(cli.ContextKeys, ", ") + `

Examples:
  kittentts ctx set backend=portable
  kittentts ctx set cache.url=memory:// output_rate=48000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := contextName
		if name == "" {
			name = cfg.CurrentContext
		}
		ctx, err := cfg.GetContext(name)
		if err != nil {
			return err
		}
		if err := applySets(ctx, args); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' updated", name)
		return nil
	},
}

// applySets applies key=value assignments to ctx.
func applySets(ctx *cli.Context, sets []string) error {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("want key=value, got %q", kv)
		}
		if err := ctx.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	ctxAddCmd.Flags().String("voice", "", "default voice")
	ctxAddCmd.Flags().StringArray("set", nil, "additional key=value settings")

	ctxCmd.AddCommand(ctxAddCmd)
	ctxCmd.AddCommand(ctxUseCmd)
	ctxCmd.AddCommand(ctxListCmd)
	ctxCmd.AddCommand(ctxShowCmd)
	ctxCmd.AddCommand(ctxDeleteCmd)
	ctxCmd.AddCommand(ctxSetCmd)
}
