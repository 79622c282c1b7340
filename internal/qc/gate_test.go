package qc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapard/mapard/internal/model"
)

// TestValidateFilename tests the strict naming convention.
func TestValidateFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		wantOK   bool
	}{
		{
			name:     "valid report name",
			filename: "MAPA-RD - REPORTE - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15",
			wantOK:   true,
		},
		{
			name:     "valid with extension stripped",
			filename: "MAPA-RD - QC - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15.json",
			wantOK:   true,
		},
		{
			name:     "valid with directory prefix",
			filename: "/srv/reports/MAPA-RD - REPORTE - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15.md",
			wantOK:   true,
		},
		{
			name:     "valid intake reference",
			filename: "MAPA-RD - INTAKE - 0000001 - Juan_Perez - I-0000001-0001 - 2026-01-15",
			wantOK:   true,
		},
		{
			name:     "unknown artifact type",
			filename: "MAPA-RD - FACTURA - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15",
			wantOK:   false,
		},
		{
			name:     "six-digit client id",
			filename: "MAPA-RD - REPORTE - 000001 - Juan_Perez - R-0000001-0001 - 2026-01-15",
			wantOK:   false,
		},
		{
			name:     "accented slug",
			filename: "MAPA-RD - REPORTE - 0000001 - Juan_Pérez - R-0000001-0001 - 2026-01-15",
			wantOK:   false,
		},
		{
			name:     "wrong separator",
			filename: "MAPA-RD_REPORTE_0000001_Juan_Perez_R-0000001-0001_2026-01-15",
			wantOK:   false,
		},
		{
			name:     "missing date",
			filename: "MAPA-RD - REPORTE - 0000001 - Juan_Perez - R-0000001-0001",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, groups, detail := ValidateFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (%s)", ok, tt.wantOK, detail)
			}
			if ok && len(groups) != 5 {
				t.Errorf("groups = %d, want 5", len(groups))
			}
		})
	}
}

// newApprovedReport builds a report whose artifact satisfies every check.
func newApprovedReport(t *testing.T) (*model.Report, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "MAPA-RD - REPORTE - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15.md")
	if err := os.WriteFile(path, []byte("# Reporte"), 0600); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	return &model.Report{
		ReportID:  "R-0000001-0001",
		ClientID:  "0000001",
		Status:    model.ReportGenerated,
		QCStatus:  model.QCPending,
		Artifacts: model.Artifacts{FinalDocPath: path},
	}, path
}

// TestRunChecklist tests the gate's overall verdict and its items.
func TestRunChecklist(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	gate := NewGate(WithGateClock(func() time.Time { return fixed }))

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		report, path := newApprovedReport(t)
		verdict := gate.RunChecklist(report, path)

		if verdict.QCStatus != model.QCApproved {
			t.Fatalf("QCStatus = %s, want APROBADO; checklist: %+v", verdict.QCStatus, verdict.Checklist)
		}
		if len(verdict.Checklist) != 7 {
			t.Errorf("checklist items = %d, want 7", len(verdict.Checklist))
		}
		if !verdict.Timestamp.Equal(fixed) {
			t.Errorf("Timestamp = %v, want %v", verdict.Timestamp, fixed)
		}
		for _, c := range verdict.Checklist {
			if !c.Pass {
				t.Errorf("check %s failed: %s", c.CheckID, c.Details)
			}
		}
	})

	t.Run("missing artifact fails", func(t *testing.T) {
		t.Parallel()

		report, path := newApprovedReport(t)
		if err := os.Remove(path); err != nil {
			t.Fatalf("failed to remove artifact: %v", err)
		}

		verdict := gate.RunChecklist(report, path)
		if verdict.QCStatus != model.QCFailed {
			t.Fatalf("QCStatus = %s, want FALLIDO", verdict.QCStatus)
		}

		failed := map[string]bool{}
		for _, c := range verdict.Checklist {
			if !c.Pass {
				failed[c.CheckID] = true
			}
		}
		if !failed["pdf_opens"] {
			t.Error("expected pdf_opens to fail for a missing artifact")
		}
	})

	t.Run("bad filename fails", func(t *testing.T) {
		t.Parallel()

		report, _ := newApprovedReport(t)
		badPath := filepath.Join(t.TempDir(), "reporte_final_v2.md")
		if err := os.WriteFile(badPath, []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}
		report.Artifacts.FinalDocPath = badPath

		verdict := gate.RunChecklist(report, badPath)
		if verdict.QCStatus != model.QCFailed {
			t.Fatalf("QCStatus = %s, want FALLIDO", verdict.QCStatus)
		}
	})

	t.Run("malformed report ID fails", func(t *testing.T) {
		t.Parallel()

		report, path := newApprovedReport(t)
		report.ReportID = "REP-1"

		verdict := gate.RunChecklist(report, path)
		if verdict.QCStatus != model.QCFailed {
			t.Fatalf("QCStatus = %s, want FALLIDO", verdict.QCStatus)
		}
	})

	t.Run("empty artifact path fails", func(t *testing.T) {
		t.Parallel()

		report, _ := newApprovedReport(t)
		report.Artifacts.FinalDocPath = ""

		verdict := gate.RunChecklist(report, "")
		if verdict.QCStatus != model.QCFailed {
			t.Fatalf("QCStatus = %s, want FALLIDO", verdict.QCStatus)
		}
	})
}
