package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mapard/mapard/internal/archive"
	"github.com/mapard/mapard/internal/config"
	"github.com/mapard/mapard/internal/log"
	"github.com/mapard/mapard/internal/notify"
	"github.com/mapard/mapard/internal/pipeline"
	"github.com/mapard/mapard/internal/qc"
	"github.com/mapard/mapard/internal/report"
	"github.com/mapard/mapard/internal/scanner"
	"github.com/mapard/mapard/internal/state"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the authorized intake backlog",
		Long: `Run every authorized intake through the full pipeline, one at a
time, in priority order: RESCUE, then INCIDENT, FREQUENCY, BASELINE,
then everything else by creation time.

Each intake is scanned, its findings normalized, deduplicated, and
scored, the report rendered and quality-controlled, and on approval
dispatched to the client. A QC failure invalidates the report and opens
a replacement RESCUE intake for the next run.

Examples:
  # Drain the backlog with the stub outbox
  mapard run

  # Real reconnaissance tool and SMTP dispatch
  mapard run --scanner-script /opt/recon/sf.py --notifier smtp`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().String("scanner-script", "", "Path of the reconnaissance tool entry script")
	cmd.Flags().Duration("scan-timeout", 0, "Per-scan timeout override")
	cmd.Flags().String("notifier", "", `Dispatch backend: "stub" or "smtp"`)
	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if script, _ := cmd.Flags().GetString("scanner-script"); script != "" {
		cfg.ScannerScript = script
	}
	if timeout, _ := cmd.Flags().GetDuration("scan-timeout"); timeout > 0 {
		cfg.ScanTimeout = timeout
	}
	if backend, _ := cmd.Flags().GetString("notifier"); backend != "" {
		cfg.NotifierBackend = backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	store, err := state.Open(cfg.StateFile, state.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open state document: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.ArchiveDir != "" {
		db, err := archive.Open(cfg.ArchiveDir, archive.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open evidence archive: %w", err)
		}
		defer db.Close()
		opts = append(opts, pipeline.WithArchive(db))
	}

	coordinator := pipeline.NewCoordinator(
		store,
		scanner.NewCLIScanner(cfg.ScannerInterpreter, cfg.ScannerScript,
			scanner.WithScanTimeout(cfg.ScanTimeout),
			scanner.WithScanLogger(logger),
		),
		report.NewMarkdownRenderer(cfg.ReportsDir, report.WithRendererLogger(logger)),
		qc.NewGate(),
		notifier,
		cfg.EvidenceDir,
		opts...,
	)

	summary, err := pipeline.NewRunner(coordinator, logger).RunBacklog(ctx)
	if err != nil {
		return err
	}

	for _, res := range summary.Processed {
		line := fmt.Sprintf("%s -> %s qc=%s", res.IntakeID, res.ReportID, res.QCStatus)
		if res.RescueIntakeID != "" {
			line += " rescue=" + res.RescueIntakeID
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	for intakeID, execErr := range summary.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s FAILED: %v\n", intakeID, execErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, failed %d\n", len(summary.Processed), len(summary.Failed))
	return nil
}

// buildNotifier constructs the configured dispatch backend.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.NotifierBackend {
	case "smtp":
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			User:       cfg.SMTP.User,
			Password:   cfg.SMTP.Password,
			UseTLS:     cfg.SMTP.UseTLS,
			Sender:     cfg.SMTP.Sender,
			OverrideTo: cfg.SMTP.OverrideTo,
		}, notify.WithSMTPLogger(logger))
	default:
		return notify.NewStubNotifier(cfg.OutboxDir, notify.WithStubLogger(logger)), nil
	}
}
