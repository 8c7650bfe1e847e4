package main

import (
	"github.com/spf13/cobra"

	"github.com/broomva/aios/internal/kernel"
	"github.com/broomva/aios/internal/sandbox"
	"github.com/broomva/aios/internal/tools"
)

// buildKernel wires a fresh Kernel rooted at the --root flag, with the
// three built-in tools registered and a local subprocess sandbox runner.
// Every subcommand calls this once: aiosd has no resident process, so
// nothing is retained between invocations beyond what's on disk.
func buildKernel(cmd *cobra.Command) (*kernel.Kernel, error) {
	registry := tools.NewRegistry()
	if err := tools.WithCoreTools(registry); err != nil {
		return nil, err
	}
	runner := sandbox.NewLocalRunner(nil)
	return kernel.NewKernel(rootFlag, registry, runner), nil
}
