package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapard/mapard/internal/model"
)

// NewClientCmd creates the client command group.
func NewClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage client records",
		Long: `Manage the consultancy's client records.

Clients are identified by a stable 7-digit ID derived from the smallest
unused number, and by a sanitized name slug used in artifact filenames.
Registering the same name twice returns the existing ID.`,
	}

	cmd.AddCommand(newClientAddCmd())
	cmd.AddCommand(newClientListCmd())
	return cmd
}

// newClientAddCmd creates the client add command.
func newClientAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <full name>",
		Short: "Register a client (idempotent by normalized name)",
		Long: `Register a client by display name.

The name is normalized to an ASCII slug (diacritics stripped, spaces to
underscores). If a client with the same slug already exists, its ID is
returned instead of creating a duplicate.

Examples:
  # Register a natural person
  mapard client add "Juan Pérez"

  # Register a company
  mapard client add "Grupo Industrial SA" --type PM`,
		Args: cobra.ExactArgs(1),
		RunE: runClientAdd,
	}

	cmd.Flags().StringP("type", "t", "PF", "Client type: PF (natural person) or PM (company)")
	return cmd
}

// runClientAdd executes the client add command.
func runClientAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	typeFlag, _ := cmd.Flags().GetString("type")
	clientType := model.ClientType(strings.ToUpper(typeFlag))

	clientID, err := store.ResolveOrCreateClientID(args[0], clientType)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "client %s: %s\n", clientID, args[0])
	return nil
}

// newClientListCmd creates the client list command.
func newClientListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered clients",
		Args:  cobra.NoArgs,
		RunE:  runClientList,
	}
}

// runClientList executes the client list command.
func runClientList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	clients := store.Clients()
	sort.Slice(clients, func(i, j int) bool { return clients[i].ClientID < clients[j].ClientID })

	if len(clients) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no clients registered")
		return nil
	}

	for _, c := range clients {
		lastValid := c.LastValidReportID
		if lastValid == "" {
			lastValid = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-4s %-30s intakes=%d reports=%d last_valid=%s\n",
			c.ClientID, c.Type, c.FullName, len(c.IntakeIDs), len(c.ReportIDs), lastValid)
	}
	return nil
}
