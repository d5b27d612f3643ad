/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ilng/roster/internal/mq"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the audit event stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print audit entries published by running servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if events == nil {
			return errors.New("EVENTS_BACKEND is not configured")
		}
		defer events.Close()

		out := cmd.OutOrStdout()
		err = events.Subscribe(ctx, mq.AuditChannel, func(_ context.Context, msg mq.Message) error {
			_, err := fmt.Fprintln(out, string(msg.Data))
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
