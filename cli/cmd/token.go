package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amesa-systems/amesa-notify/cli/internal/config"
	"github.com/amesa-systems/amesa-notify/cli/pkg/output"
	"github.com/amesa-systems/amesa-notify/common/tokens"
)

const secretEnv = "NOTIFY_SECURITY_JWT_SECRET"

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint service tokens for the notify API",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a signed bearer token",
	Long: `Create an HS256 bearer token accepted by the notify service.

The signing secret is read from --secret, then the profile's token_secret,
then $` + secretEnv + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		scopes, _ := cmd.Flags().GetStringSlice("scope")
		save, _ := cmd.Flags().GetBool("save")

		secret := signingSecret(cmd)
		gen, err := tokens.NewTokenGenerator(secret)
		if err != nil {
			return fmt.Errorf("no signing secret: use --secret, a profile token_secret or $%s", secretEnv)
		}

		token, err := gen.Generate(subject, scopes, ttl)
		if err != nil {
			return err
		}

		if save {
			name, _ := cmd.Flags().GetString("profile")
			if name == "" {
				name = cfg.CurrentProfile
			}
			if name == "" {
				name = "default"
			}
			p := activeProfile(cmd)
			p.Token = token
			if err := cfg.SetProfile(name, p); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			output.Success("Token saved to profile %s", name)
		}

		return output.Print(outputFormat(cmd), map[string]interface{}{
			"token":      token,
			"subject":    subject,
			"scopes":     scopes,
			"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
		}, func() *output.Table {
			table := output.NewTable([]string{"Token"})
			table.AddRow([]string{token})
			return table
		})
	},
}

func signingSecret(cmd *cobra.Command) string {
	if s, _ := cmd.Flags().GetString("secret"); s != "" {
		return s
	}
	if s := activeProfile(cmd).TokenSecret; s != "" {
		return s
	}
	return os.Getenv(secretEnv)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage CLI profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a profile and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cfg.GetProfile(args[0])
		if err != nil {
			p = &config.Profile{}
		}
		if cmd.Flags().Changed("notify-url") {
			p.NotifyURL, _ = cmd.Flags().GetString("notify-url")
		}
		if cmd.Flags().Changed("token") {
			p.Token, _ = cmd.Flags().GetString("token")
		}
		if cmd.Flags().Changed("token-secret") {
			p.TokenSecret, _ = cmd.Flags().GetString("token-secret")
		}
		if err := cfg.SetProfile(args[0], p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		output.Success("Profile %s saved", args[0])
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(outputFormat(cmd), cfg.Profiles, func() *output.Table {
			table := output.NewTable([]string{"", "Name", "Notify URL", "Token"})
			for name, p := range cfg.Profiles {
				current := ""
				if name == cfg.CurrentProfile {
					current = "*"
				}
				hasToken := "no"
				if p.Token != "" {
					hasToken = "yes"
				}
				table.AddRow([]string{current, name, p.NotifyURL, hasToken})
			}
			return table
		})
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveProfile(args[0]); err != nil {
			return err
		}
		output.Success("Profile %s removed", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)

	tokenCreateCmd.Flags().String("subject", "notifyctl", "token subject")
	tokenCreateCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	tokenCreateCmd.Flags().StringSlice("scope", []string{"webhook"}, "token scopes (webhook, admin)")
	tokenCreateCmd.Flags().String("secret", "", "signing secret")
	tokenCreateCmd.Flags().Bool("save", false, "store the token in the active profile")

	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)

	profileSetCmd.Flags().String("notify-url", config.DefaultNotifyURL, "notify service URL")
	profileSetCmd.Flags().String("token", "", "bearer token")
	profileSetCmd.Flags().String("token-secret", "", "secret for token create")
}
