package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/broomva/aios/internal/config"
	"github.com/broomva/aios/pkg/protocol"
)

func buildSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create sessions and advance them tick by tick",
	}
	cmd.AddCommand(buildSessionCreateCmd(), buildSessionTickCmd())
	return cmd
}

func buildSessionCreateCmd() *cobra.Command {
	var (
		owner      string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}

			policy := protocol.DefaultPolicySet()
			routing := protocol.DefaultModelRouting()
			if configPath != "" {
				cfg, err := config.LoadKernelConfig(configPath)
				if err != nil {
					return fmt.Errorf("load kernel config: %w", err)
				}
				policy = cfg.PolicySet()
				routing = cfg.Routing()
			}

			manifest, err := k.CreateSession(owner, policy, routing)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			return printJSON(cmd, manifest)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "cli-operator", "Owner identity recorded on the session")
	cmd.Flags().StringVar(&configPath, "config", "", "Optional YAML policy/routing config (see internal/config.KernelConfig)")
	return cmd
}

func buildSessionTickCmd() *cobra.Command {
	var (
		sessionID    string
		branch       string
		objective    string
		toolName     string
		toolInputRaw string
	)
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance a session one tick, optionally dispatching a tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}

			var proposedTool *protocol.ToolCall
			if toolName != "" {
				call := protocol.NewToolCall(toolName, json.RawMessage(toolInputRaw), nil)
				proposedTool = &call
			}

			out, err := k.Tick(cmd.Context(), protocol.SessionID(sessionID), protocol.BranchID(branch), objective, proposedTool)
			if err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to advance")
	cmd.Flags().StringVar(&branch, "branch", string(protocol.MainBranch), "Branch to advance")
	cmd.Flags().StringVar(&objective, "objective", "", "Deliberation summary recorded on this tick")
	cmd.Flags().StringVar(&toolName, "tool", "", "Name of a registered tool to propose this tick (fs.read, fs.write, shell.exec)")
	cmd.Flags().StringVar(&toolInputRaw, "tool-input", "{}", "JSON input for --tool")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	return cmd
}
