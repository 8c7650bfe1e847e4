package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/broomva/aios/pkg/protocol"
)

func buildBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Fork, list, and merge session branches",
	}
	cmd.AddCommand(buildBranchCreateCmd(), buildBranchListCmd(), buildBranchMergeCmd())
	return cmd
}

func buildBranchCreateCmd() *cobra.Command {
	var (
		sessionID  string
		newBranch  string
		fromBranch string
		forkAt     int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Fork a new branch from an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}

			var forkSeq *protocol.SeqNo
			if forkAt >= 0 {
				seq := protocol.SeqNo(forkAt)
				forkSeq = &seq
			}

			info, err := k.CreateBranch(protocol.SessionID(sessionID), protocol.BranchID(newBranch), protocol.BranchID(fromBranch), forkSeq)
			if err != nil {
				return fmt.Errorf("create branch: %w", err)
			}
			return printJSON(cmd, info)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session owning the new branch")
	cmd.Flags().StringVar(&newBranch, "name", "", "Name of the new branch")
	cmd.Flags().StringVar(&fromBranch, "from", string(protocol.MainBranch), "Source branch to fork from")
	cmd.Flags().Int64Var(&forkAt, "at", -1, "Fork sequence (-1 means the source branch's current head)")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	return cmd
}

func buildBranchListCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a session's branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}
			session, err := k.Registry.Get(protocol.SessionID(sessionID))
			if err != nil {
				return fmt.Errorf("list branches: %w", err)
			}
			return printJSON(cmd, session.ListBranches())
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to list branches for")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	return cmd
}

func buildBranchMergeCmd() *cobra.Command {
	var (
		sessionID string
		source    string
		target    string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a branch into another, marking the source read-only",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}
			result, err := k.MergeBranch(protocol.SessionID(sessionID), protocol.BranchID(source), protocol.BranchID(target))
			if err != nil {
				return fmt.Errorf("merge branch: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session owning both branches")
	cmd.Flags().StringVar(&source, "source", "", "Branch to merge (becomes read-only)")
	cmd.Flags().StringVar(&target, "target", string(protocol.MainBranch), "Branch to merge into")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	cobra.CheckErr(cmd.MarkFlagRequired("source"))
	return cmd
}
