package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amesa-systems/amesa-notify/cli/internal/client"
	"github.com/amesa-systems/amesa-notify/cli/internal/simulate"
	"github.com/amesa-systems/amesa-notify/cli/pkg/output"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Send events and inspect their state",
}

var eventSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one event to the webhook",
	Long: `Send one event envelope to the notify webhook.

Example:
  notifyctl event send --type UserCreated --source amesa.auth \
    --detail '{"userId":"8c4b...","email":"ada@example.com","username":"ada"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		detailType, _ := cmd.Flags().GetString("type")
		source, _ := cmd.Flags().GetString("source")
		detail, _ := cmd.Flags().GetString("detail")
		id, _ := cmd.Flags().GetString("id")

		if !json.Valid([]byte(detail)) {
			return fmt.Errorf("--detail is not valid JSON")
		}
		if source == "" {
			s, ok := simulate.SourceFor(detailType)
			if !ok {
				return fmt.Errorf("--source is required for detail type %q", detailType)
			}
			source = s
		}
		if id == "" {
			id = uuid.NewString()
		}

		env := &client.Envelope{
			Version:    "0",
			ID:         id,
			DetailType: detailType,
			Source:     source,
			Time:       time.Now().UTC(),
			Detail:     json.RawMessage(detail),
		}

		res, err := notifyClient(cmd).SendEvent(cmd.Context(), env)
		if err != nil {
			return fmt.Errorf("failed to send event: %w", err)
		}
		return printWebhookResults(cmd, []*client.Envelope{env}, []*client.WebhookResult{res})
	},
}

var eventSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send generated events",
	Long: `Generate realistic events with fake data and send them to the webhook.

Without --type each event gets a random simulated type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		detailType, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetInt64("seed")
		list, _ := cmd.Flags().GetBool("list")

		if list {
			for _, t := range simulate.Types() {
				source, _ := simulate.SourceFor(t)
				fmt.Fprintf(output.Stdout, "%-28s %s\n", t, source)
			}
			return nil
		}
		if count <= 0 {
			return fmt.Errorf("--count must be positive")
		}

		envs, err := simulate.New(seed).Batch(detailType, count)
		if err != nil {
			return err
		}

		c := notifyClient(cmd)
		results := make([]*client.WebhookResult, 0, len(envs))
		for _, env := range envs {
			res, err := c.SendEvent(cmd.Context(), env)
			if err != nil {
				return fmt.Errorf("failed to send event %s: %w", env.ID, err)
			}
			results = append(results, res)
		}
		return printWebhookResults(cmd, envs, results)
	},
}

var eventStateCmd = &cobra.Command{
	Use:   "state <id>",
	Short: "Show idempotency state and recorded outcomes for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := notifyClient(cmd).GetEvent(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}

		return output.Print(outputFormat(cmd), detail, func() *output.Table {
			table := output.NewTable([]string{"Event", "Processed", "Retries", "Max Retries"})
			table.AddRow([]string{
				detail.State.EventID,
				strconv.FormatBool(detail.State.Processed),
				strconv.Itoa(detail.State.Retries),
				strconv.Itoa(detail.State.MaxRetries),
			})
			if len(detail.Outcomes) > 0 {
				table.AddRow([]string{"", "", "", ""})
				table.AddRow([]string{"Recorded", "Outcome", "Attempt", "Error"})
				for _, o := range detail.Outcomes {
					table.AddRow([]string{
						o.RecordedAt.Format(time.RFC3339),
						o.Outcome,
						strconv.Itoa(o.Attempt),
						o.Error,
					})
				}
			}
			return table
		})
	},
}

var eventResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Clear the processed flag and retry count of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := notifyClient(cmd).ResetEvent(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to reset event: %w", err)
		}
		output.Success("Event %s reset", args[0])
		return nil
	},
}

func printWebhookResults(cmd *cobra.Command, envs []*client.Envelope, results []*client.WebhookResult) error {
	return output.Print(outputFormat(cmd), results, func() *output.Table {
		table := output.NewTable([]string{"ID", "Type", "Status", "Message"})
		for i, res := range results {
			msg := res.Message
			if msg == "" {
				msg = res.Error
			}
			table.AddRow([]string{envs[i].ID, envs[i].DetailType, strconv.Itoa(res.StatusCode), msg})
		}
		return table
	})
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventSendCmd)
	eventCmd.AddCommand(eventSimulateCmd)
	eventCmd.AddCommand(eventStateCmd)
	eventCmd.AddCommand(eventResetCmd)

	eventSendCmd.Flags().String("type", "", "event detail type (e.g. UserCreated)")
	eventSendCmd.Flags().String("source", "", "event source (default: inferred from the type)")
	eventSendCmd.Flags().String("detail", "{}", "event detail as JSON")
	eventSendCmd.Flags().String("id", "", "event id (default: random UUID)")
	eventSendCmd.MarkFlagRequired("type")

	eventSimulateCmd.Flags().String("type", "", "detail type to simulate (default: random)")
	eventSimulateCmd.Flags().Int("count", 1, "number of events to send")
	eventSimulateCmd.Flags().Int64("seed", 0, "random seed (0 picks one)")
	eventSimulateCmd.Flags().Bool("list", false, "list the simulated detail types and exit")
}
