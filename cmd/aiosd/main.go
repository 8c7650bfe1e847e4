// Package main provides the CLI entry point for aiosd, a thin local
// wrapper around the kernel runtime API: sessions, branches, events, and
// approvals. Unlike a channel-facing gateway, aiosd carries no network
// surface — every subcommand runs the kernel in-process against a
// workspace root on disk and exits.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	rootFlag string
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aiosd",
		Short: "aiosd - local control plane for a bounded-deliberation agent kernel",
		Long: `aiosd drives an agent control-plane kernel directly from the CLI:
create a session, advance it tick by tick, fork and merge branches, read
or follow its event journal, and resolve approval tickets.

This is a local operator tool, not a daemon: every invocation runs the
kernel in-process against --root and exits.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", defaultRoot(), "Kernel workspace root (sessions, events, checkpoints live under here)")

	rootCmd.AddCommand(
		buildSessionCmd(),
		buildBranchCmd(),
		buildEventsCmd(),
		buildApprovalCmd(),
	)

	return rootCmd
}

func defaultRoot() string {
	if root := os.Getenv("AIOSD_ROOT"); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aiosd"
	}
	return home + "/.aiosd"
}
