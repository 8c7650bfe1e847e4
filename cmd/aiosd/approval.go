package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/broomva/aios/pkg/protocol"
)

func buildApprovalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Resolve pending human-in-the-loop approval tickets",
	}
	cmd.AddCommand(buildApprovalResolveCmd())
	return cmd
}

func buildApprovalResolveCmd() *cobra.Command {
	var (
		sessionID  string
		approvalID string
		approve    bool
		deny       bool
		actor      string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Approve or deny a pending approval ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == deny {
				return fmt.Errorf("exactly one of --approve or --deny must be set")
			}
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}
			resolution, err := k.ResolveApproval(protocol.SessionID(sessionID), protocol.ApprovalID(approvalID), approve, actor)
			if err != nil {
				return fmt.Errorf("resolve approval: %w", err)
			}
			return printJSON(cmd, resolution)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session owning the ticket")
	cmd.Flags().StringVar(&approvalID, "approval-id", "", "Ticket to resolve")
	cmd.Flags().BoolVar(&approve, "approve", false, "Approve the ticket")
	cmd.Flags().BoolVar(&deny, "deny", false, "Deny the ticket")
	cmd.Flags().StringVar(&actor, "actor", "cli-operator", "Identity resolving the ticket, or a bearer token if actor verification is enabled")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	cobra.CheckErr(cmd.MarkFlagRequired("approval-id"))
	return cmd
}
