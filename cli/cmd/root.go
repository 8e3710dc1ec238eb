package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amesa-systems/amesa-notify/cli/internal/client"
	"github.com/amesa-systems/amesa-notify/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "notifyctl",
	Short: "Amesa notification service CLI",
	Long: `notifyctl talks to a running notify service.

Send or simulate platform events, inspect idempotency state and the
dead-letter queue, and mint service tokens from your terminal.`,
	Version:      "0.1.0",
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.notifyctl/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("url", "", "notify service URL, overrides the profile")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func activeProfile(cmd *cobra.Command) *config.Profile {
	if cfg == nil {
		cfg = config.Default()
	}
	name, _ := cmd.Flags().GetString("profile")
	p := cfg.Resolve(name)
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		p.NotifyURL = u
	}
	return p
}

func notifyClient(cmd *cobra.Command) *client.NotifyClient {
	p := activeProfile(cmd)
	return client.NewNotifyClient(p.NotifyURL, p.Token)
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}
