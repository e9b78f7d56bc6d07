package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stemsplit/internal/deps"
	"stemsplit/internal/notifications"
	"stemsplit/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the separation engine and its dependencies are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			fmt.Fprintln(out, "Configuration")
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Use uvx", statusInfo, yesNo(cfg.Separator.UseUVX), colorize))
			model := cfg.Separator.Model
			if model == "" {
				model = "engine default"
			}
			fmt.Fprintln(out, renderStatusLine("Model", statusInfo, model, colorize))

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Directories")
			dirs := []preflight.Result{
				preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
				preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
			}
			if cfg.Songs.FallbackDir != "" {
				dirs = append(dirs, preflight.CheckDirectoryAccess("Songs directory", cfg.Songs.FallbackDir))
			}
			if cfg.Separator.ModelDir != "" {
				dirs = append(dirs, preflight.CheckDirectoryAccess("Model directory", cfg.Separator.ModelDir))
			}
			for _, r := range dirs {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Dependencies")
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			for _, status := range statuses {
				kind := statusOK
				message := status.Path
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
					message = status.Detail
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			if failed := preflight.Failed(dirs); len(failed) > 0 {
				return fmt.Errorf("%d directories not usable", len(failed))
			}

			if sendTest {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Notifications")
				if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, renderStatusLine("ntfy", statusWarn, "notifications.ntfy_topic not set", colorize))
					return nil
				}
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					fmt.Fprintln(out, renderStatusLine("ntfy", statusError, err.Error(), colorize))
					return err
				}
				fmt.Fprintln(out, renderStatusLine("ntfy", statusOK, "test notification sent", colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sendTest, "notify", false, "Send a test notification to the configured ntfy topic")
	return cmd
}
