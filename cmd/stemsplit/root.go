package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts runFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "stemsplit [flags] [songs-dir]",
		Short: "Split song folders into vocal and instrumental stems",
		Long: "stemsplit walks a songs directory and runs audio-separator on every song folder\n" +
			"that does not yet have [VOC] and [INSTR] stems, then records the stems in the\n" +
			"folder's <name>.txt sidecar.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeparation(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.force, "force", "f", false, "Separate folders even when stems already exist")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report which folders would be separated without running the engine")
	flags.StringVarP(&opts.exclusions, "exclusions", "e", "", "Exclusions file listing folder names to skip (default from config)")
	flags.BoolVar(&opts.continueOnError, "continue-on-error", false, "Keep going when a folder fails to separate")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging and separator output on stderr")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
