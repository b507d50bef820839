package main

import (
	"fmt"
	"time"

	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/config"
	"github.com/spf13/cobra"
)

func newAPIKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage household API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCmd(a))
	return cmd
}

func newAPIKeyCreateCmd(a *app) *cobra.Command {
	var (
		householdID string
		name        string
		days        int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a household",
		Long: `Create an API key for a household. The key is printed once and cannot
be recovered afterwards.

Examples:
  hearthctl apikey create --household <id> --name laptop
  hearthctl apikey create --household <id> --name ci --days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			now := a.now().UTC()
			var expiresAt *time.Time
			if days > 0 {
				t := now.AddDate(0, 0, days)
				expiresAt = &t
			}

			return a.withStore(cmd.Context(), func(store adminStore, cfg *config.CLIConfig) error {
				plain, key, err := auth.CreateAPIKey(cmd.Context(), store, auth.CreateKeyParams{
					HouseholdID: householdID,
					Name:        name,
					KeyType:     cfg.APIKey.KeyType,
					ExpiresAt:   expiresAt,
					Now:         now,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "API key created (id %s)\n", key.ID)
				fmt.Fprintf(out, "  household: %s\n", key.HouseholdID)
				fmt.Fprintf(out, "  name:      %s\n", key.Name)
				if key.ExpiresAt != nil {
					fmt.Fprintf(out, "  expires:   %s\n", key.ExpiresAt.Format(time.RFC3339))
				} else {
					fmt.Fprintf(out, "  expires:   never\n")
				}
				fmt.Fprintf(out, "\n%s\n\n", plain)
				fmt.Fprintln(out, "Save this key now! It will not be shown again.")
				fmt.Fprintf(out, "Usage: curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/reminders\n", plain)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&householdID, "household", "", "owning household ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "key name (required)")
	cmd.Flags().IntVar(&days, "days", 0, "days until expiry, 0 for never")
	return cmd
}
