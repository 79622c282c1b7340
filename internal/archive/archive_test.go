package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/qc"
)

// newTestDB opens a fresh archive in a temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	a, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("failed to close archive: %v", err)
		}
	})
	return a
}

// TestOpen tests archive creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database with defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open archive: %v", err)
		}
		defer a.Close()

		if a.dbPath != filepath.Join(dir, "evidence.db") {
			t.Errorf("dbPath = %s", a.dbPath)
		}
	})

	t.Run("refuses missing database without create", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create archive: %v", err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		reopened, err := Open(dir, opts)
		if err != nil {
			t.Fatalf("failed to reopen archive: %v", err)
		}
		defer reopened.Close()
	})
}

// TestScanEvidenceRoundtrip tests evidence storage and retrieval.
func TestScanEvidenceRoundtrip(t *testing.T) {
	t.Parallel()

	a := newTestDB(t)
	ctx := context.Background()

	raw := []byte(`{"type":"EMAILADDR","data":"juan@example.com"}` + "\n")
	if err := a.SaveScanEvidence(ctx, "I-0000001-0001", "0000001", "juanperez.com.mx", raw, 1); err != nil {
		t.Fatalf("failed to save evidence: %v", err)
	}
	if err := a.SaveScanEvidence(ctx, "I-0000001-0002", "0000001", "juan@example.com", nil, 0); err != nil {
		t.Fatalf("failed to save empty evidence: %v", err)
	}
	if err := a.SaveScanEvidence(ctx, "I-0000002-0001", "0000002", "other.mx", []byte("x"), 1); err != nil {
		t.Fatalf("failed to save evidence: %v", err)
	}

	records, err := a.EvidenceByClient(ctx, "0000001")
	if err != nil {
		t.Fatalf("failed to query evidence: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want the client's 2 rows only", len(records))
	}
	for _, r := range records {
		if r.ClientID != "0000001" {
			t.Errorf("record %d belongs to %s", r.ID, r.ClientID)
		}
		if r.Timestamp.IsZero() {
			t.Errorf("record %d has no timestamp", r.ID)
		}
	}

	var withRaw EvidenceRecord
	for _, r := range records {
		if r.IntakeID == "I-0000001-0001" {
			withRaw = r
		}
	}
	got, err := a.RawEvidence(ctx, withRaw.ID)
	if err != nil {
		t.Fatalf("failed to get raw evidence: %v", err)
	}
	if string(got) != string(raw) {
		t.Error("raw evidence must round-trip byte for byte")
	}

	t.Run("unknown row yields nil", func(t *testing.T) {
		t.Parallel()

		got, err := a.RawEvidence(ctx, 99999)
		if err != nil || got != nil {
			t.Errorf("RawEvidence(99999) = %v, %v; want nil, nil", got, err)
		}
	})
}

// TestFindingsRoundtrip tests finding storage and retrieval order.
func TestFindingsRoundtrip(t *testing.T) {
	t.Parallel()

	a := newTestDB(t)
	ctx := context.Background()

	findings := []model.Finding{
		{
			FindingID:     "aaaa111122223333",
			Entity:        "Compromised Credentials",
			Category:      model.CategoryDataLeak,
			Value:         "juan@example.com [breach]",
			EventType:     "EMAILADDR_COMPROMISED",
			SourceName:    "sfp_haveibeenpwned",
			RiskScore:     model.RiskP0,
			RiskRationale: "CRÍTICO: Credenciales o datos privados expuestos en filtración.",
			Confidence:    0.9,
		},
		{
			FindingID:  "bbbb111122223333",
			Entity:     "Email",
			Category:   model.CategoryContact,
			Value:      "juan@example.com",
			EventType:  "EMAILADDR",
			SourceName: "sfp_hunter",
			RiskScore:  model.RiskP3,
			Confidence: 0.75,
		},
	}
	if err := a.SaveFindings(ctx, "R-0000001-0001", "I-0000001-0001", findings); err != nil {
		t.Fatalf("failed to save findings: %v", err)
	}

	got, err := a.FindingsByReport(ctx, "R-0000001-0001")
	if err != nil {
		t.Fatalf("failed to query findings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("findings = %d, want 2", len(got))
	}
	if got[0].FindingID != "aaaa111122223333" || got[1].FindingID != "bbbb111122223333" {
		t.Error("findings must come back in insertion order")
	}
	if got[0].Category != model.CategoryDataLeak || got[0].RiskScore != model.RiskP0 {
		t.Errorf("first finding = %+v", got[0])
	}
	if got[0].RiskRationale != findings[0].RiskRationale {
		t.Errorf("rationale = %q", got[0].RiskRationale)
	}
	if got[1].Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", got[1].Confidence)
	}

	t.Run("unknown report yields none", func(t *testing.T) {
		t.Parallel()

		got, err := a.FindingsByReport(ctx, "R-9999999-0001")
		if err != nil || len(got) != 0 {
			t.Errorf("FindingsByReport = %d findings, %v", len(got), err)
		}
	})
}

// TestQCVerdictRoundtrip tests the append-only verdict history.
func TestQCVerdictRoundtrip(t *testing.T) {
	t.Parallel()

	a := newTestDB(t)
	ctx := context.Background()

	verdict := qc.Verdict{
		ReportID: "R-0000001-0001",
		QCStatus: model.QCApproved,
		Checklist: []qc.Check{
			{CheckID: "lang_spanish", Name: "Todo español", Pass: true},
			{CheckID: "naming", Name: "Convención de nombres", Pass: true},
		},
		Timestamp: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	if err := a.SaveQCVerdict(ctx, verdict); err != nil {
		t.Fatalf("failed to save verdict: %v", err)
	}

	history, err := a.QCHistory(ctx, "R-0000001-0001")
	if err != nil {
		t.Fatalf("failed to query history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	got := history[0]
	if got.QCStatus != model.QCApproved {
		t.Errorf("QCStatus = %s", got.QCStatus)
	}
	if len(got.Checklist) != 2 || got.Checklist[0].CheckID != "lang_spanish" {
		t.Errorf("checklist = %+v", got.Checklist)
	}
}

// TestParseTimestamp tests the format fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2026-01-15 12:00:00"},
		{name: "iso8601 with zone", input: "2026-01-15T12:00:00Z"},
		{name: "rfc3339", input: "2026-01-15T12:00:00+00:00"},
		{name: "garbage", input: "not a timestamp", zero: true},
		{name: "empty", input: "", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero = %v", tt.input, got, tt.zero)
			}
		})
	}
}
