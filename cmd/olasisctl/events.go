package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the activity event stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print activity events as JSON lines until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		typeFilter, _ := cmd.Flags().GetString("type")

		enc := json.NewEncoder(cmd.OutOrStdout())
		listener := events.NewListener(events.ListenerConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			GroupID: group,
		}, func(_ context.Context, event domain.ActivityEvent) error {
			if typeFilter != "" && event.EventType != typeFilter {
				return nil
			}
			return enc.Encode(event)
		}, logger)

		fmt.Fprintf(cmd.ErrOrStderr(), "tailing %s on %v\n", cfg.Events.Topic, cfg.Events.Brokers)
		if err := listener.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	eventsTailCmd.Flags().String("group", "olasisctl-tail", "consumer group ID")
	eventsTailCmd.Flags().String("type", "", "only print events of this type")
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
