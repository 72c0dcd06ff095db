package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/memory"
	"github.com/adrianmcphee/crossbase/schema"
	"github.com/adrianmcphee/crossbase/standalone"
)

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read and write message history through the memory group",
	}
	cmd.AddCommand(newMessagesAddCmd(), newMessagesListCmd(), newMessagesDeleteCmd())
	return cmd
}

func newMessagesAddCmd() *cobra.Command {
	var (
		session    string
		sender     string
		senderName string
		flow       string
	)
	cmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Store a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := standalone.NewMessage(args[0], sender, senderName, session)
			msg.FlowID = flow
			stored, err := memory.StoreMessage(cmd.Context(), msg)
			if err != nil {
				return err
			}
			return printRecords(cmd, []schema.Record{stored})
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "session id (required)")
	cmd.Flags().StringVar(&sender, "sender", "User", "sender kind")
	cmd.Flags().StringVar(&senderName, "sender-name", "User", "sender display name")
	cmd.Flags().StringVar(&flow, "flow", "", "flow id")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newMessagesListCmd() *cobra.Command {
	var q capability.MessageQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := q.Validate(); err != nil {
				return err
			}
			msgs, err := memory.GetMessages(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printRecords(cmd, msgs)
		},
	}
	cmd.Flags().StringVar(&q.SessionID, "session", "", "only this session")
	cmd.Flags().StringVar(&q.FlowID, "flow", "", "only this flow")
	cmd.Flags().StringVar(&q.Sender, "sender", "", "only this sender kind")
	cmd.Flags().StringVar(&q.SenderName, "sender-name", "", "only this sender name")
	cmd.Flags().StringVar(&q.Order, "order", capability.OrderAsc, "timestamp order: ASC or DESC")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of messages, 0 for all")
	return cmd
}

func newMessagesDeleteCmd() *cobra.Command {
	var session, id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a session's messages or a single message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case session != "" && id != "":
				return errors.New("use either --session or --id")
			case id != "":
				return memory.DeleteMessage(cmd.Context(), id)
			case session != "":
				return memory.DeleteMessages(cmd.Context(), session)
			}
			return fmt.Errorf("%w: --session or --id is required", crossbase.ErrInvalidData)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "delete every message of this session")
	cmd.Flags().StringVar(&id, "id", "", "delete one message")
	return cmd
}

// printRecords writes one JSON object per line.
func printRecords(cmd *cobra.Command, recs []schema.Record) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range recs {
		if err := enc.Encode(schema.Dump(r)); err != nil {
			return err
		}
	}
	return nil
}
