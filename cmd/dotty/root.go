package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Dima-369/dotty/internal/version"
	"github.com/Dima-369/dotty/pkg/config"
	"github.com/Dima-369/dotty/pkg/executor"
	"github.com/Dima-369/dotty/pkg/filesystem"
	"github.com/Dima-369/dotty/pkg/logging"
	"github.com/Dima-369/dotty/pkg/paths"
	"github.com/Dima-369/dotty/pkg/policy"
	"github.com/Dima-369/dotty/pkg/reconcile"
	"github.com/Dima-369/dotty/pkg/types"
	"github.com/Dima-369/dotty/pkg/ui/report"
)

// EnvRoot names the environment variable consulted when --root is not
// given.
const EnvRoot = "DOTTY_ROOT"

var (
	verbosity          int
	rootFlag           string
	dryRun             bool
	overwriteIdentical bool
	noColor            bool

	rootCmd = &cobra.Command{
		Use:   "dotty",
		Short: "Reconcile a dotfiles tree into your home directory",
		Long: `dotty symlinks the files of a managed source tree into a destination
tree (your home directory by default). A companion Lua descriptor next
to any file decides whether it participates, under what name, and
whether its content is rewritten before being materialized.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
)

// Execute runs the root command. Called once from main.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.Flags().StringVar(&rootFlag, "root", "", "Source tree of managed files (default $DOTTY_ROOT)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without touching the filesystem")
	rootCmd.Flags().BoolVar(&overwriteIdentical, "overwrite-identical", false, "Replace destination files proven byte-identical to their source")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dotty version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}

// run wires the collaborators together and performs one reconcile
// pass. No summary is printed when the walk fails.
func run() error {
	logger := logging.GetLogger("cmd")

	root := rootFlag
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	sourceRoot, err := paths.ValidateSourceRoot(root)
	if err != nil {
		return err
	}

	cfg, err := config.Load(sourceRoot)
	if err != nil {
		return err
	}

	destRoot, err := paths.ResolveDestRoot(cfg.Target)
	if err != nil {
		return err
	}

	opts := types.Options{
		SourceRoot:        sourceRoot,
		DestRoot:          destRoot,
		DescriptorSuffix:  cfg.DescriptorSuffix,
		Ignore:            cfg.Ignore,
		DryRun:            dryRun,
		OverrideIdentical: overwriteIdentical,
	}

	logger.Info().
		Str("source", opts.SourceRoot).
		Str("dest", opts.DestRoot).
		Bool("dryRun", opts.DryRun).
		Msg("Starting reconcile")

	fs := filesystem.NewOS()
	rep := report.New(os.Stdout, noColor, dryRun)
	walker := reconcile.NewWalker(fs, policy.NewEvaluator(fs), executor.New(fs), rep, opts)

	counters, err := walker.Run()
	if err != nil {
		logger.Error().Err(err).Msg("Reconcile failed")
		return err
	}

	rep.Summary(counters)
	return nil
}
