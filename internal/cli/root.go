package cli

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

type globalOptions struct {
	verbose bool
	noColor bool
}

// NewRootCmd builds the treebatch command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "treebatch",
		Version: version,
		Short:   "Inspect, clean and apply hierarchical write batches",
		Long: `treebatch works with multi-path write batches for a hierarchical store.

A batch is a JSON object mapping slash-separated paths to values, where null
deletes the path and everything below it. Batches that delete a subtree and
also write inside it are inconsistent; "treebatch clean" drops such writes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every applied and dropped entry")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(&cobra.Group{ID: "batch", Title: "Batch Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "store", Title: "Store Commands:"})

	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newConflictsCmd())
	rootCmd.AddCommand(newOverlapsCmd())
	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newDumpCmd(opts))
	return rootCmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
