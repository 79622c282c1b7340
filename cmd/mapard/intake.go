package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/state"
)

// NewIntakeCmd creates the intake command group.
func NewIntakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Manage work intakes",
		Long: `Manage work intakes: the authorization-gated units of scanning work.

Intakes move GENERADO -> AUTORIZADO -> EJECUTADO. Only authorized
intakes are ever picked up by the pipeline, and execution is strictly
ordered: RESCUE before INCIDENT before FREQUENCY before BASELINE.`,
	}

	cmd.AddCommand(newIntakeCreateCmd())
	cmd.AddCommand(newIntakeAuthorizeCmd())
	cmd.AddCommand(newIntakeListCmd())
	return cmd
}

// newIntakeCreateCmd creates the intake create command.
func newIntakeCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <client-id>",
		Short: "Create an intake in GENERADO state",
		Long: `Create a new intake for a client.

INCIDENT intakes past the client's monthly limit are still created but
flagged over-limit; authorizing them is a cost decision made separately.
RESCUE intakes require --replaces with the invalidated report's ID.

Examples:
  # Initial assessment against the client's domain
  mapard intake create 0000001 --type BASELINE --domain juanperez.com.mx --email juan@example.com

  # Incident-triggered assessment
  mapard intake create 0000001 --type INCIDENT --domain juanperez.com.mx

  # Replacement for an invalidated report
  mapard intake create 0000001 --type RESCUE --replaces R-0000001-0002 --domain juanperez.com.mx`,
		Args: cobra.ExactArgs(1),
		RunE: runIntakeCreate,
	}

	cmd.Flags().StringP("type", "t", "BASELINE",
		"Intake type: BASELINE, FREQUENCY, INCIDENT, RESCUE, MONTHLY, ON_DEMAND")
	cmd.Flags().StringSliceP("domain", "d", nil, "Client domain (repeatable; first one is the scan target)")
	cmd.Flags().StringSliceP("email", "e", nil, "Client email (repeatable; dispatch recipients)")
	cmd.Flags().StringP("replaces", "r", "", "Invalidated report ID a RESCUE intake replaces")
	return cmd
}

// runIntakeCreate executes the intake create command.
func runIntakeCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	typeFlag, _ := cmd.Flags().GetString("type")
	domains, _ := cmd.Flags().GetStringSlice("domain")
	emails, _ := cmd.Flags().GetStringSlice("email")
	replaces, _ := cmd.Flags().GetString("replaces")

	intakeID, err := store.CreateIntake(
		args[0],
		model.IntakeType(strings.ToUpper(typeFlag)),
		model.RequestedByCLIUser,
		state.IntakeOptions{
			ReplacesReportID: replaces,
			Domains:          domains,
			Emails:           emails,
		},
	)
	if err != nil {
		return err
	}

	intake, err := store.Intake(intakeID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "intake %s created (%s)\n", intakeID, intake.IntakeType)
	if intake.OverLimit {
		fmt.Fprintln(cmd.OutOrStdout(), "warning: over monthly incident limit; authorization requires cost approval")
	}
	return nil
}

// newIntakeAuthorizeCmd creates the intake authorize command.
func newIntakeAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize <intake-id>",
		Short: "Authorize an intake for execution",
		Long: `Move an intake from GENERADO to AUTORIZADO.

Only authorized intakes are picked up by "mapard run". Authorization of
an over-limit INCIDENT intake is the operator's cost approval.`,
		Args: cobra.ExactArgs(1),
		RunE: runIntakeAuthorize,
	}
}

// runIntakeAuthorize executes the intake authorize command.
func runIntakeAuthorize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	if err := store.UpdateIntakeStatus(args[0], model.IntakeAuthorized, string(model.RequestedByCLIUser)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "intake %s authorized\n", args[0])
	return nil
}

// newIntakeListCmd creates the intake list command.
func newIntakeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List intakes",
		Args:  cobra.NoArgs,
		RunE:  runIntakeList,
	}

	cmd.Flags().BoolP("pending", "p", false, "Show only the authorized backlog in execution order")
	return cmd
}

// runIntakeList executes the intake list command.
func runIntakeList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	pendingOnly, _ := cmd.Flags().GetBool("pending")

	var intakes []*model.Intake
	if pendingOnly {
		intakes = store.PendingByPriority()
	} else {
		intakes = store.Intakes()
		sort.Slice(intakes, func(i, j int) bool { return intakes[i].IntakeID < intakes[j].IntakeID })
	}

	if len(intakes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no intakes")
		return nil
	}

	for _, i := range intakes {
		extra := ""
		if i.OverLimit {
			extra = " OVER_LIMIT"
		}
		if i.ReplacesReportID != "" {
			extra += " replaces=" + i.ReplacesReportID
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %-11s%s\n", i.IntakeID, i.IntakeType, i.Status, extra)
	}
	return nil
}
