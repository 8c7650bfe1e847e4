package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/broomva/aios/internal/journal"
	"github.com/broomva/aios/pkg/protocol"
)

func buildEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read or follow a session branch's event journal",
	}
	cmd.AddCommand(buildEventsReadCmd(), buildEventsSubscribeCmd())
	return cmd
}

func buildEventsReadCmd() *cobra.Command {
	var (
		sessionID string
		branch    string
		from      int64
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a bounded range of events from the durable journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}
			b := protocol.BranchID(branch)
			records, err := k.Journal.Read(protocol.SessionID(sessionID), &b, protocol.SeqNo(from), limit)
			if err != nil {
				return fmt.Errorf("read events: %w", err)
			}
			return printJSON(cmd, records)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to read")
	cmd.Flags().StringVar(&branch, "branch", string(protocol.MainBranch), "Branch to read")
	cmd.Flags().Int64Var(&from, "from", 0, "Read events with sequence at or above this (values below 1 read from 1)")
	cmd.Flags().IntVar(&limit, "limit", 100, fmt.Sprintf("Max events to return (capped at %d)", journal.MaxReadLimit))
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	return cmd
}

func buildEventsSubscribeCmd() *cobra.Command {
	var (
		sessionID string
		branch    string
		from      int64
		count     int
	)
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Follow a session branch's event journal live, printing one JSON object per event",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(cmd)
			if err != nil {
				return err
			}
			sub, err := k.Journal.Subscribe(protocol.SessionID(sessionID), protocol.BranchID(branch), protocol.SeqNo(from))
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			defer sub.Close()

			seen := 0
			for item := range sub.Items {
				if item.Event != nil {
					if err := printJSON(cmd, item.Event); err != nil {
						return err
					}
					seen++
				}
				if count > 0 && seen >= count {
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to follow")
	cmd.Flags().StringVar(&branch, "branch", string(protocol.MainBranch), "Branch to follow")
	cmd.Flags().Int64Var(&from, "from", 0, "Start strictly after this sequence")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many events (0 means follow indefinitely)")
	cobra.CheckErr(cmd.MarkFlagRequired("session-id"))
	return cmd
}
