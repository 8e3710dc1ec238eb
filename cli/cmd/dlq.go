package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/amesa-systems/amesa-notify/cli/pkg/output"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and replay dead-lettered events",
}

var dlqListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List dead-lettered events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		events, err := notifyClient(cmd).ListDLQ(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list dead-letter queue: %w", err)
		}

		if outputFormat(cmd) == output.FormatTable && len(events) == 0 {
			output.Info("Dead-letter queue is empty")
			return nil
		}

		return output.Print(outputFormat(cmd), events, func() *output.Table {
			table := output.NewTable([]string{"Event", "Type", "Reason", "Attempts", "Last Attempt", "Error"})
			for _, e := range events {
				id, detailType := e.ID, ""
				if e.Envelope != nil {
					id, detailType = e.Envelope.ID, e.Envelope.DetailType
				}
				table.AddRow([]string{
					id,
					detailType,
					e.Reason,
					strconv.Itoa(e.Attempts),
					e.LastAttempt.Format(time.RFC3339),
					e.Error,
				})
			}
			return table
		})
	},
}

var dlqStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dead-letter queue statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := notifyClient(cmd).DLQStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get dead-letter stats: %w", err)
		}

		return output.Print(outputFormat(cmd), stats, func() *output.Table {
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			table := output.NewTable([]string{"Stat", "Value"})
			for _, k := range keys {
				table.AddRow([]string{k, fmt.Sprint(stats[k])})
			}
			return table
		})
	},
}

var dlqPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every dead-lettered event",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to purge without --yes")
		}
		if err := notifyClient(cmd).PurgeDLQ(cmd.Context()); err != nil {
			return fmt.Errorf("failed to purge dead-letter queue: %w", err)
		}
		output.Success("Dead-letter queue purged")
		return nil
	},
}

var dlqReplayCmd = &cobra.Command{
	Use:   "replay <event-id>",
	Short: "Reset a dead-lettered event and send it again",
	Long: `Find the event in the dead-letter queue, clear its idempotency state
and send its original envelope back to the webhook.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		res, err := notifyClient(cmd).Replay(cmd.Context(), args[0], limit)
		if err != nil {
			return fmt.Errorf("failed to replay event: %w", err)
		}
		if !res.Success {
			return fmt.Errorf("replay rejected with status %d: %s", res.StatusCode, res.Error)
		}
		output.Success("Event %s replayed: %s", args[0], res.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dlqCmd)
	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqStatsCmd)
	dlqCmd.AddCommand(dlqPurgeCmd)
	dlqCmd.AddCommand(dlqReplayCmd)

	dlqListCmd.Flags().Int("limit", 50, "maximum entries to list")
	dlqPurgeCmd.Flags().Bool("yes", false, "confirm the purge")
	dlqReplayCmd.Flags().Int("limit", 500, "how many dead-letter entries to search")
}
