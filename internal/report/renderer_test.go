package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/qc"
)

// testClient returns a client record for rendering.
func testClient() *model.Client {
	return &model.Client{
		ClientID: "0000001",
		FullName: "Juan Pérez",
		NameSlug: "Juan_Perez",
		Type:     model.ClientPF,
	}
}

// testRequest returns a render request with a small findings set.
func testRequest() RenderRequest {
	return RenderRequest{
		Client:     testClient(),
		IntakeID:   "I-0000001-0001",
		ReportID:   "R-0000001-0001",
		ReportType: model.IntakeBaseline,
		Findings: []model.Finding{
			{
				FindingID:     "aaa",
				Entity:        "Compromised Credentials",
				Category:      model.CategoryDataLeak,
				Value:         "juan@example.com [breach]",
				SourceName:    "sfp_haveibeenpwned",
				RiskScore:     model.RiskP0,
				RiskRationale: "CRÍTICO: Credenciales o datos privados expuestos en filtración.",
			},
			{
				FindingID:     "bbb",
				Entity:        "Email",
				Category:      model.CategoryContact,
				Value:         "juan@example.com",
				SourceName:    "sfp_hunter",
				RiskScore:     model.RiskP3,
				RiskRationale: "Información pública de bajo impacto.",
			},
		},
		Date: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// TestBaseName tests artifact name construction against the QC verifier.
func TestBaseName(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	name := BaseName(ArtifactReport, "0000001", "Juan_Perez", "R-0000001-0001", date)

	want := "MAPA-RD - REPORTE - 0000001 - Juan_Perez - R-0000001-0001 - 2026-01-15"
	if name != want {
		t.Errorf("BaseName = %q, want %q", name, want)
	}

	ok, _, detail := qc.ValidateFilename(name)
	if !ok {
		t.Errorf("producer and verifier disagree: %s", detail)
	}
}

// TestRender tests document and metadata production.
func TestRender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewMarkdownRenderer(dir)

	artifacts, err := r.Render(testRequest())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	t.Run("artifact names satisfy the naming convention", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{artifacts.FinalDocPath, artifacts.MetadataPath} {
			if ok, _, detail := qc.ValidateFilename(path); !ok {
				t.Errorf("artifact %s: %s", path, detail)
			}
		}
	})

	t.Run("document content", func(t *testing.T) {
		t.Parallel()

		data, err := os.ReadFile(artifacts.FinalDocPath)
		if err != nil {
			t.Fatalf("failed to read document: %v", err)
		}
		doc := string(data)

		for _, want := range []string{
			"MAPA-RD - Reporte de Inteligencia OSINT",
			"Juan Pérez",
			"Resumen de Riesgo",
			"Nivel P0",
			"Nivel P3",
			"Anexo: Formato de Reclamación",
		} {
			if !strings.Contains(doc, want) {
				t.Errorf("document missing %q", want)
			}
		}

		// P1/P2 have no findings in this request; their sections are omitted.
		if strings.Contains(doc, "Nivel P1") || strings.Contains(doc, "Nivel P2") {
			t.Error("empty tiers must be omitted")
		}
	})

	t.Run("metadata sidecar exists", func(t *testing.T) {
		t.Parallel()

		info, err := os.Stat(artifacts.MetadataPath)
		if err != nil {
			t.Fatalf("metadata sidecar missing: %v", err)
		}
		if info.Size() == 0 {
			t.Error("metadata sidecar is empty")
		}
	})
}

// TestRender_NoFindings tests the empty-findings document.
func TestRender_NoFindings(t *testing.T) {
	t.Parallel()

	r := NewMarkdownRenderer(t.TempDir())
	req := testRequest()
	req.Findings = nil

	artifacts, err := r.Render(req)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	data, err := os.ReadFile(artifacts.FinalDocPath)
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}
	if !strings.Contains(string(data), "Sin hallazgos relevantes") {
		t.Error("empty report must carry the no-findings notice")
	}
	if !strings.Contains(string(data), "Anexo: Formato de Reclamación") {
		t.Error("complaint annex must be present even with no findings")
	}
}

// TestWriteChecklist tests QC verdict persistence.
func TestWriteChecklist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewMarkdownRenderer(dir)

	verdict := qc.Verdict{
		ReportID: "R-0000001-0001",
		QCStatus: model.QCApproved,
		Checklist: []qc.Check{
			{CheckID: "lang_spanish", Name: "Todo español", Pass: true},
		},
	}

	date := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	path, err := r.WriteChecklist(testClient(), "R-0000001-0001", date, verdict)
	if err != nil {
		t.Fatalf("WriteChecklist failed: %v", err)
	}

	if ok, groups, detail := qc.ValidateFilename(path); !ok {
		t.Errorf("checklist name invalid: %s", detail)
	} else if groups[0] != "QC" {
		t.Errorf("artifact type = %s, want QC", groups[0])
	}

	if _, err := os.Stat(filepath.Clean(path)); err != nil {
		t.Errorf("checklist file missing: %v", err)
	}
}
