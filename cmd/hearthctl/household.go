package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/config"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/spf13/cobra"
)

func newHouseholdCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Manage households",
	}
	cmd.AddCommand(newHouseholdCreateCmd(a))
	cmd.AddCommand(newHouseholdListCmd(a))
	cmd.AddCommand(newHouseholdDeleteCmd(a))
	return cmd
}

func newHouseholdCreateCmd(a *app) *cobra.Command {
	var name, timezone string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a household",
		Long: `Create a household. Reminders of the household are interpreted in its
timezone unless a reminder names its own.

Examples:
  hearthctl household create --name "Home"
  hearthctl household create --name "Cabin" --timezone Europe/Helsinki`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHousehold(name, timezone, a)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store adminStore, _ *config.CLIConfig) error {
				if err := store.CreateHousehold(cmd.Context(), h); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created household %s (%s)\n", h.ID, h.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "household name (required)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, empty for the server default")
	return cmd
}

func newHousehold(name, timezone string, a *app) (*domain.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	timezone = strings.TrimSpace(timezone)
	if timezone != "" {
		if _, err := domain.LoadTimezone(timezone); err != nil {
			return nil, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate household ID: %w", err)
	}
	return &domain.Household{
		ID:        id.String(),
		Name:      name,
		Timezone:  timezone,
		CreatedAt: a.now().UTC(),
	}, nil
}

func newHouseholdListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List households",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(store adminStore, _ *config.CLIConfig) error {
				households, err := store.ListHouseholds(cmd.Context())
				if err != nil {
					return err
				}
				if len(households) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No households")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tTIMEZONE\tCREATED")
				for _, h := range households {
					tz := h.Timezone
					if tz == "" {
						tz = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.ID, h.Name, tz, h.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}

func newHouseholdDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <household-id>",
		Short: "Delete a household with its reminders and API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store adminStore, _ *config.CLIConfig) error {
				if err := store.DeleteHousehold(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted household %s\n", args[0])
				return nil
			})
		},
	}
}
