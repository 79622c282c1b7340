package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mapard/mapard/internal/archive"
	"github.com/mapard/mapard/internal/intel"
	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/notify"
	"github.com/mapard/mapard/internal/qc"
	"github.com/mapard/mapard/internal/report"
	"github.com/mapard/mapard/internal/scanner"
	"github.com/mapard/mapard/internal/state"
)

// Renderer is the artifact production surface the coordinator needs: the
// report package itself plus the QC checklist sidecar.
type Renderer interface {
	Render(req report.RenderRequest) (model.Artifacts, error)
	WriteChecklist(client *model.Client, reportID string, date time.Time, verdict qc.Verdict) (string, error)
}

// Result summarizes one intake execution.
type Result struct {
	// IntakeID and ReportID identify the processed work.
	IntakeID string
	ReportID string

	// QCStatus is the gate's verdict.
	QCStatus model.QCStatus

	// ReportStatus is the report's state after the run.
	ReportStatus model.ReportStatus

	// Findings is the count of scored findings in the report.
	Findings int

	// MessageID is the transport message ID when dispatch happened.
	MessageID string

	// RescueIntakeID is set when a QC failure spawned a replacement intake.
	RescueIntakeID string
}

// Coordinator executes one authorized intake through the full flow.
type Coordinator struct {
	store    *state.Store
	scanner  scanner.Scanner
	renderer Renderer
	gate     *qc.Gate
	notifier notify.Notifier

	// archive receives raw evidence, findings, and QC verdicts. Optional;
	// nil disables archival.
	archive *archive.DB

	// evidenceDir is where raw scanner output is written verbatim.
	evidenceDir string

	// normalizer and scorer transform scan events into scored findings.
	normalizer *intel.Normalizer
	scorer     *intel.Scorer

	// now supplies the report date. Injectable for tests.
	now func() time.Time

	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithArchive attaches the evidence archive.
func WithArchive(db *archive.DB) Option {
	return func(c *Coordinator) {
		c.archive = db
	}
}

// WithClock overrides the coordinator's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator wires the coordinator's collaborators. evidenceDir is
// where raw scan output lands before any processing.
func NewCoordinator(store *state.Store, sc scanner.Scanner, r Renderer, gate *qc.Gate, n notify.Notifier, evidenceDir string, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		scanner:     sc,
		renderer:    r,
		gate:        gate,
		notifier:    n,
		evidenceDir: evidenceDir,
		normalizer:  intel.NewNormalizer(),
		scorer:      intel.NewScorer(),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one authorized intake end to end:
//
//  1. Mark the intake EJECUTADO before any external call, so a crash
//     mid-scan leaves an orphan that FindOrphanedIntakes surfaces instead
//     of an intake that silently re-runs.
//  2. Resolve the scan target and run the scan.
//  3. Persist the raw output verbatim (file and archive) before any
//     processing touches it.
//  4. Normalize, deduplicate, and score the events.
//  5. Create the report record and render the artifacts.
//  6. Run the QC gate and finalize the verdict (write-once).
//  7. On APROBADO, dispatch and move the report to EN_REVISION; on
//     FALLIDO, invalidate it and open a replacement RESCUE intake.
func (c *Coordinator) Execute(ctx context.Context, intakeID string) (Result, error) {
	intake, err := c.store.Intake(intakeID)
	if err != nil {
		return Result{}, err
	}
	client, err := c.store.Client(intake.ClientID)
	if err != nil {
		return Result{}, err
	}

	if err := c.store.UpdateIntakeStatus(intakeID, model.IntakeExecuted, string(model.RequestedBySystem)); err != nil {
		return Result{}, fmt.Errorf("failed to mark intake executed: %w", err)
	}

	target := resolveTarget(intake, client)
	c.logger.Info("executing intake",
		"intakeID", intakeID,
		"clientID", client.ClientID,
		"type", intake.IntakeType,
		"target", target,
	)

	scan, err := c.scanner.Scan(ctx, target)
	if err != nil {
		return Result{}, fmt.Errorf("scan failed for %s: %w", intakeID, err)
	}

	if err := c.persistEvidence(ctx, intake, client, target, scan); err != nil {
		return Result{}, err
	}

	findings := c.scorer.ScoreAll(intel.Dedupe(c.normalizer.NormalizeAll(scan.Events)))

	reportID, err := c.store.CreateReport(client.ClientID, intakeID, intake.IntakeType)
	if err != nil {
		return Result{}, err
	}

	date := c.now()
	artifacts, err := c.renderer.Render(report.RenderRequest{
		Client:     client,
		IntakeID:   intakeID,
		ReportID:   reportID,
		ReportType: intake.IntakeType,
		Findings:   findings,
		Date:       date,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to render report %s: %w", reportID, err)
	}
	if err := c.store.SetReportArtifacts(reportID, artifacts); err != nil {
		return Result{}, err
	}

	if c.archive != nil {
		if err := c.archive.SaveFindings(ctx, reportID, intakeID, findings); err != nil {
			c.logger.Warn("failed to archive findings", "reportID", reportID, "error", err)
		}
	}

	res := Result{
		IntakeID: intakeID,
		ReportID: reportID,
		Findings: len(findings),
	}

	rec, err := c.store.Report(reportID)
	if err != nil {
		return res, err
	}
	verdict := c.gate.RunChecklist(rec, artifacts.FinalDocPath)
	res.QCStatus = verdict.QCStatus

	if err := c.store.UpdateQCStatus(reportID, verdict.QCStatus, string(model.RequestedBySystem)); err != nil {
		return res, err
	}
	checklistPath, err := c.renderer.WriteChecklist(client, reportID, date, verdict)
	if err != nil {
		return res, fmt.Errorf("failed to write QC checklist: %w", err)
	}
	artifacts.QCChecklistPath = checklistPath
	if err := c.store.SetReportArtifacts(reportID, artifacts); err != nil {
		return res, err
	}
	if c.archive != nil {
		if err := c.archive.SaveQCVerdict(ctx, verdict); err != nil {
			c.logger.Warn("failed to archive QC verdict", "reportID", reportID, "error", err)
		}
	}

	if verdict.QCStatus == model.QCFailed {
		return c.failQC(res, intake, client)
	}
	return c.dispatch(ctx, res, intake, client, artifacts)
}

// persistEvidence writes the raw scanner output verbatim, first to the
// evidence directory and then to the archive. Evidence is saved even when
// the scan produced nothing; an empty capture is itself evidence.
func (c *Coordinator) persistEvidence(ctx context.Context, intake *model.Intake, client *model.Client, target string, scan scanner.Result) error {
	if err := os.MkdirAll(c.evidenceDir, 0750); err != nil {
		return fmt.Errorf("failed to create evidence directory: %w", err)
	}

	name := report.BaseName(report.ArtifactIntake, client.ClientID, client.NameSlug, intake.IntakeID, c.now())
	path := filepath.Join(c.evidenceDir, name+".json")
	// Raw scan output holds client PII; owner-only permissions.
	if err := os.WriteFile(path, scan.Raw, 0600); err != nil {
		return fmt.Errorf("failed to write raw evidence: %w", err)
	}

	if c.archive != nil {
		if err := c.archive.SaveScanEvidence(ctx, intake.IntakeID, client.ClientID, target, scan.Raw, len(scan.Events)); err != nil {
			c.logger.Warn("failed to archive scan evidence", "intakeID", intake.IntakeID, "error", err)
		}
	}
	return nil
}

// failQC invalidates a QC-failed report and opens its replacement RESCUE
// intake, authorized immediately so the next backlog run picks it up ahead
// of everything else.
func (c *Coordinator) failQC(res Result, intake *model.Intake, client *model.Client) (Result, error) {
	if err := c.store.UpdateReportStatus(res.ReportID, model.ReportInvalidated, string(model.RequestedBySystem), model.InvalidatedQCFail); err != nil {
		return res, err
	}
	res.ReportStatus = model.ReportInvalidated

	rescueID, err := c.store.CreateIntake(client.ClientID, model.IntakeRescue, model.RequestedBySystem, state.IntakeOptions{
		ReplacesReportID: res.ReportID,
		Domains:          intake.Domains,
		Emails:           intake.Emails,
	})
	if err != nil {
		return res, fmt.Errorf("failed to create rescue intake for %s: %w", res.ReportID, err)
	}
	if err := c.store.UpdateIntakeStatus(rescueID, model.IntakeAuthorized, string(model.RequestedBySystem)); err != nil {
		return res, err
	}
	res.RescueIntakeID = rescueID

	c.logger.Warn("QC failed; report invalidated and rescue opened",
		"reportID", res.ReportID,
		"rescueIntakeID", rescueID,
	)
	return res, nil
}

// dispatch sends the approved report and moves it to EN_REVISION. A failed
// send leaves the report in GENERADO with its APROBADO verdict intact, so
// a later retry only repeats the dispatch, never the QC.
func (c *Coordinator) dispatch(ctx context.Context, res Result, intake *model.Intake, client *model.Client, artifacts model.Artifacts) (Result, error) {
	messageID, err := c.notifier.Send(ctx, notify.Request{
		Recipients:   intake.Emails,
		ArtifactPath: artifacts.FinalDocPath,
		ClientName:   client.FullName,
		ReportID:     res.ReportID,
	})
	if err != nil {
		return res, fmt.Errorf("dispatch failed for %s: %w", res.ReportID, err)
	}
	res.MessageID = messageID

	if err := c.store.UpdateReportStatus(res.ReportID, model.ReportInReview, string(model.RequestedBySystem), ""); err != nil {
		return res, err
	}
	res.ReportStatus = model.ReportInReview

	c.logger.Info("report dispatched",
		"reportID", res.ReportID,
		"messageID", messageID,
		"recipients", len(intake.Emails),
	)
	return res, nil
}

// resolveTarget picks the scan target: the first domain, else the first
// email, else the client's name slug as a last-resort search seed.
func resolveTarget(intake *model.Intake, client *model.Client) string {
	if len(intake.Domains) > 0 {
		return intake.Domains[0]
	}
	if len(intake.Emails) > 0 {
		return intake.Emails[0]
	}
	return client.NameSlug
}
