package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/notify"
	"github.com/mapard/mapard/internal/qc"
	"github.com/mapard/mapard/internal/report"
	"github.com/mapard/mapard/internal/scanner"
	"github.com/mapard/mapard/internal/state"
)

// fakeScanner returns canned events without invoking any tool. Targets
// listed in failFor error out instead.
type fakeScanner struct {
	raw     []byte
	failFor string
	targets []string
}

func (f *fakeScanner) Scan(_ context.Context, target string) (scanner.Result, error) {
	f.targets = append(f.targets, target)
	if f.failFor != "" && target == f.failFor {
		return scanner.Result{}, errors.New("tool crashed")
	}
	return scanner.Result{Events: scanner.ParseEvents(f.raw), Raw: f.raw}, nil
}

// brokenRenderer produces artifacts that cannot pass the QC gate: the
// referenced document never exists on disk.
type brokenRenderer struct {
	dir string
}

func (b *brokenRenderer) Render(req report.RenderRequest) (model.Artifacts, error) {
	return model.Artifacts{
		FinalDocPath: filepath.Join(b.dir, "reporte_sin_convencion.md"),
	}, nil
}

func (b *brokenRenderer) WriteChecklist(client *model.Client, reportID string, date time.Time, verdict qc.Verdict) (string, error) {
	path := filepath.Join(b.dir, reportID+"_qc.json")
	return path, os.WriteFile(path, []byte("{}"), 0600)
}

// failingNotifier always refuses to send.
type failingNotifier struct{}

func (failingNotifier) Send(context.Context, notify.Request) (string, error) {
	return "", errors.New("relay unavailable")
}

// sampleRaw is a small line-delimited scan capture.
var sampleRaw = []byte(`{"type":"EMAILADDR","data":"juan@example.com","module":"sfp_hunter"}
{"type":"EMAILADDR","data":"juan@example.com","module":"sfp_other"}
{"type":"EMAILADDR_COMPROMISED","data":"juan@example.com [breach]","module":"sfp_haveibeenpwned"}
{"type":"DOMAIN_NAME","data":"juanperez.com.mx","module":"sfp_dns"}
`)

// testEnv wires a coordinator over real collaborators in temp storage.
type testEnv struct {
	store       *state.Store
	coordinator *Coordinator
	outboxDir   string
	sc          *fakeScanner
}

// newTestEnv builds the happy-path environment: real renderer, real gate,
// stub notifier.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := state.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	outbox := filepath.Join(dir, "outbox")
	sc := &fakeScanner{raw: sampleRaw}
	c := NewCoordinator(
		store,
		sc,
		report.NewMarkdownRenderer(filepath.Join(dir, "reports")),
		qc.NewGate(),
		notify.NewStubNotifier(outbox),
		filepath.Join(dir, "evidence"),
	)
	return &testEnv{store: store, coordinator: c, outboxDir: outbox, sc: sc}
}

// newAuthorizedIntake registers the client and an authorized intake.
func newAuthorizedIntake(t *testing.T, s *state.Store, intakeType model.IntakeType) (string, string) {
	t.Helper()

	clientID, err := s.ResolveOrCreateClientID("Juan Pérez", model.ClientPF)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	intakeID, err := s.CreateIntake(clientID, intakeType, model.RequestedByCLIUser, state.IntakeOptions{
		Domains: []string{"juanperez.com.mx"},
		Emails:  []string{"juan@example.com"},
	})
	if err != nil {
		t.Fatalf("failed to create intake: %v", err)
	}
	if err := s.UpdateIntakeStatus(intakeID, model.IntakeAuthorized, "test"); err != nil {
		t.Fatalf("failed to authorize intake: %v", err)
	}
	return clientID, intakeID
}

// TestExecute_HappyPath tests the full approved flow end to end.
func TestExecute_HappyPath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, intakeID := newAuthorizedIntake(t, env.store, model.IntakeBaseline)

	res, err := env.coordinator.Execute(context.Background(), intakeID)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.QCStatus != model.QCApproved {
		t.Errorf("QCStatus = %s, want APROBADO", res.QCStatus)
	}
	if res.ReportStatus != model.ReportInReview {
		t.Errorf("ReportStatus = %s, want EN_REVISION", res.ReportStatus)
	}
	if res.MessageID == "" {
		t.Error("expected a dispatch message ID")
	}
	// The duplicate EMAILADDR collapses; three unique findings remain.
	if res.Findings != 3 {
		t.Errorf("findings = %d, want 3 after dedup", res.Findings)
	}
	if res.RescueIntakeID != "" {
		t.Errorf("unexpected rescue intake %s on the happy path", res.RescueIntakeID)
	}

	intake, err := env.store.Intake(intakeID)
	if err != nil {
		t.Fatalf("intake lookup failed: %v", err)
	}
	if intake.Status != model.IntakeExecuted {
		t.Errorf("intake status = %s, want EJECUTADO", intake.Status)
	}

	rec, err := env.store.Report(res.ReportID)
	if err != nil {
		t.Fatalf("report lookup failed: %v", err)
	}
	if rec.SentAt.IsZero() || rec.ReviewDeadlineAt.IsZero() {
		t.Error("EN_REVISION report must carry sent/deadline timestamps")
	}
	if rec.Artifacts.FinalDocPath == "" || rec.Artifacts.QCChecklistPath == "" {
		t.Errorf("artifacts incomplete: %+v", rec.Artifacts)
	}
	if _, err := os.Stat(rec.Artifacts.FinalDocPath); err != nil {
		t.Errorf("final document missing: %v", err)
	}

	entries, err := os.ReadDir(env.outboxDir)
	if err != nil || len(entries) != 1 {
		t.Errorf("outbox entries = %d (err %v), want 1", len(entries), err)
	}

	if len(env.sc.targets) != 1 || env.sc.targets[0] != "juanperez.com.mx" {
		t.Errorf("scan targets = %v, want the first domain", env.sc.targets)
	}
}

// TestExecute_QCFailureOpensRescue tests invalidation plus the automatic
// replacement intake.
func TestExecute_QCFailureOpensRescue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := state.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	outbox := filepath.Join(dir, "outbox")
	c := NewCoordinator(
		store,
		&fakeScanner{raw: sampleRaw},
		&brokenRenderer{dir: dir},
		qc.NewGate(),
		notify.NewStubNotifier(outbox),
		filepath.Join(dir, "evidence"),
	)

	_, intakeID := newAuthorizedIntake(t, store, model.IntakeBaseline)

	res, err := c.Execute(context.Background(), intakeID)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.QCStatus != model.QCFailed {
		t.Fatalf("QCStatus = %s, want FALLIDO", res.QCStatus)
	}
	if res.ReportStatus != model.ReportInvalidated {
		t.Errorf("ReportStatus = %s, want INVALIDADO", res.ReportStatus)
	}
	if res.RescueIntakeID == "" {
		t.Fatal("expected a rescue intake")
	}

	rec, _ := store.Report(res.ReportID)
	if rec.InvalidatedReason != model.InvalidatedQCFail {
		t.Errorf("InvalidatedReason = %s, want QC_FAIL", rec.InvalidatedReason)
	}

	rescue, err := store.Intake(res.RescueIntakeID)
	if err != nil {
		t.Fatalf("rescue intake lookup failed: %v", err)
	}
	if rescue.IntakeType != model.IntakeRescue {
		t.Errorf("rescue type = %s", rescue.IntakeType)
	}
	if rescue.ReplacesReportID != res.ReportID {
		t.Errorf("rescue replaces %s, want %s", rescue.ReplacesReportID, res.ReportID)
	}
	if rescue.Status != model.IntakeAuthorized {
		t.Errorf("rescue status = %s, want AUTORIZADO for the next run", rescue.Status)
	}
	if rescue.RequestedBy != model.RequestedBySystem {
		t.Errorf("rescue requested by %s, want SYSTEM", rescue.RequestedBy)
	}

	// A failed report is never dispatched.
	if entries, err := os.ReadDir(outbox); err == nil && len(entries) != 0 {
		t.Errorf("outbox entries = %d, want 0 after QC failure", len(entries))
	}

	// Exactly one rescue per failure.
	rescues := 0
	for _, i := range store.Intakes() {
		if i.IntakeType == model.IntakeRescue {
			rescues++
		}
	}
	if rescues != 1 {
		t.Errorf("rescue intakes = %d, want exactly 1", rescues)
	}
}

// TestExecute_DispatchFailureKeepsVerdict tests that a failed send leaves
// the approved report in GENERADO.
func TestExecute_DispatchFailureKeepsVerdict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := state.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	c := NewCoordinator(
		store,
		&fakeScanner{raw: sampleRaw},
		report.NewMarkdownRenderer(filepath.Join(dir, "reports")),
		qc.NewGate(),
		failingNotifier{},
		filepath.Join(dir, "evidence"),
	)

	_, intakeID := newAuthorizedIntake(t, store, model.IntakeBaseline)

	res, err := c.Execute(context.Background(), intakeID)
	if err == nil {
		t.Fatal("expected dispatch error")
	}

	rec, lookupErr := store.Report(res.ReportID)
	if lookupErr != nil {
		t.Fatalf("report lookup failed: %v", lookupErr)
	}
	if rec.Status != model.ReportGenerated {
		t.Errorf("status = %s, want GENERADO until a send succeeds", rec.Status)
	}
	if rec.QCStatus != model.QCApproved {
		t.Errorf("QCStatus = %s, want the APROBADO verdict preserved", rec.QCStatus)
	}
}

// TestExecute_EmptyScanStillReports tests that a silent scanner produces a
// no-findings report instead of an error.
func TestExecute_EmptyScanStillReports(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.sc.raw = nil
	_, intakeID := newAuthorizedIntake(t, env.store, model.IntakeBaseline)

	res, err := env.coordinator.Execute(context.Background(), intakeID)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if res.Findings != 0 {
		t.Errorf("findings = %d, want 0", res.Findings)
	}
	if res.QCStatus != model.QCApproved {
		t.Errorf("QCStatus = %s; an empty report is still a valid report", res.QCStatus)
	}
}

// TestExecute_EvidencePersistedVerbatim tests that raw output lands on
// disk before processing.
func TestExecute_EvidencePersistedVerbatim(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := state.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	evidenceDir := filepath.Join(dir, "evidence")
	c := NewCoordinator(
		store,
		&fakeScanner{raw: sampleRaw},
		report.NewMarkdownRenderer(filepath.Join(dir, "reports")),
		qc.NewGate(),
		notify.NewStubNotifier(filepath.Join(dir, "outbox")),
		evidenceDir,
	)

	_, intakeID := newAuthorizedIntake(t, store, model.IntakeBaseline)
	if _, err := c.Execute(context.Background(), intakeID); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	entries, err := os.ReadDir(evidenceDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("evidence entries = %d (err %v), want 1", len(entries), err)
	}
	data, err := os.ReadFile(filepath.Join(evidenceDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read evidence: %v", err)
	}
	if string(data) != string(sampleRaw) {
		t.Error("evidence must be the scanner output byte for byte")
	}
}

// TestRunBacklog_PriorityOrder tests sequential execution in mandated
// order with per-intake error isolation.
func TestRunBacklog_PriorityOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	clientID, err := env.store.ResolveOrCreateClientID("Juan Pérez", model.ClientPF)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	created := map[model.IntakeType]string{}
	for _, it := range []model.IntakeType{model.IntakeBaseline, model.IntakeIncident} {
		id, err := env.store.CreateIntake(clientID, it, model.RequestedByCLIUser, state.IntakeOptions{
			Domains: []string{fmt.Sprintf("%s.example.com", it)},
			Emails:  []string{"juan@example.com"},
		})
		if err != nil {
			t.Fatalf("failed to create %s intake: %v", it, err)
		}
		if err := env.store.UpdateIntakeStatus(id, model.IntakeAuthorized, "test"); err != nil {
			t.Fatalf("failed to authorize: %v", err)
		}
		created[it] = id
	}

	summary, err := NewRunner(env.coordinator, nil).RunBacklog(context.Background())
	if err != nil {
		t.Fatalf("backlog run failed: %v", err)
	}

	if len(summary.Processed) != 2 || len(summary.Failed) != 0 {
		t.Fatalf("processed = %d, failed = %d; want 2/0", len(summary.Processed), len(summary.Failed))
	}
	if summary.Processed[0].IntakeID != created[model.IntakeIncident] {
		t.Errorf("first executed = %s, want the INCIDENT intake", summary.Processed[0].IntakeID)
	}
	if summary.Processed[1].IntakeID != created[model.IntakeBaseline] {
		t.Errorf("second executed = %s, want the BASELINE intake", summary.Processed[1].IntakeID)
	}
}

// TestRunBacklog_FailureDoesNotAbort tests that one broken intake leaves
// the rest of the backlog running.
func TestRunBacklog_FailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, first := newAuthorizedIntake(t, env.store, model.IntakeBaseline)

	clientID, err := env.store.ResolveOrCreateClientID("María Muñoz", model.ClientPF)
	if err != nil {
		t.Fatalf("failed to create second client: %v", err)
	}
	second, err := env.store.CreateIntake(clientID, model.IntakeBaseline, model.RequestedByCLIUser, state.IntakeOptions{
		Domains: []string{"mariamunoz.mx"},
		Emails:  []string{"maria@example.com"},
	})
	if err != nil {
		t.Fatalf("failed to create intake: %v", err)
	}
	if err := env.store.UpdateIntakeStatus(second, model.IntakeAuthorized, "test"); err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}

	// Sabotage the first intake's scan target so its execution errors out.
	env.sc.failFor = "juanperez.com.mx"

	summary, err := NewRunner(env.coordinator, nil).RunBacklog(context.Background())
	if err != nil {
		t.Fatalf("backlog run failed: %v", err)
	}

	if len(summary.Processed) != 1 {
		t.Errorf("processed = %d, want the healthy intake to complete", len(summary.Processed))
	}
	if len(summary.Processed) == 1 && summary.Processed[0].IntakeID != second {
		t.Errorf("processed %s, want %s", summary.Processed[0].IntakeID, second)
	}
	if _, ok := summary.Failed[first]; !ok {
		t.Errorf("failed map = %v, want an entry for %s", summary.Failed, first)
	}
}
