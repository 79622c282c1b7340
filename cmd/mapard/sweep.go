package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Apply tacit approvals and surface orphaned intakes",
		Long: `Sweep the review queue.

Every report in EN_REVISION whose 48-hour review window has expired is
marked APROBADO_TACITO and recorded as the client's last valid report.
Intakes left EJECUTADO with no report (a crash between execution and
report creation) are listed for operator attention; they are never
auto-repaired.

Run this from cron, or manually before "mapard run".`,
		Args: cobra.NoArgs,
		RunE: runSweepCmd,
	}
}

// runSweepCmd executes the sweep command.
func runSweepCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	approved, err := store.SweepTacitApprovals(time.Now())
	if err != nil {
		return err
	}
	for _, reportID := range approved {
		fmt.Fprintf(cmd.OutOrStdout(), "tacitly approved: %s\n", reportID)
	}
	if len(approved) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no reports past their review window")
	}

	orphans := store.FindOrphanedIntakes()
	for _, intake := range orphans {
		fmt.Fprintf(cmd.OutOrStdout(), "orphaned intake: %s (executed %s, no report)\n",
			intake.IntakeID, intake.ExecutedAt.Format(time.RFC3339))
	}
	return nil
}
