package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/qc"
)

// RenderRequest carries everything the renderer needs for one report
// package.
type RenderRequest struct {
	// Client is the report subject.
	Client *model.Client

	// IntakeID and ReportID tie the artifacts to their work items.
	IntakeID string
	ReportID string

	// ReportType is stamped into the document header.
	ReportType model.IntakeType

	// Findings are the scored, deduplicated findings in pipeline order.
	Findings []model.Finding

	// Date is the report date used in filenames and the header.
	Date time.Time
}

// Renderer produces the report artifacts for scored findings. It must be
// synchronous: the coordinator blocks on it before running QC.
type Renderer interface {
	Render(req RenderRequest) (model.Artifacts, error)
}

// MarkdownRenderer writes the report package as Markdown plus a JSON
// metadata sidecar under a reports directory.
//
// Design decision: We render Markdown rather than PDF directly. The
// consultancy's PDF step is a separate conversion concern; keeping the
// renderer at the Markdown level makes its output diffable and testable.
type MarkdownRenderer struct {
	// dir is the directory report artifacts are written to.
	dir string

	// logger is used for structured logging.
	logger *slog.Logger
}

// RendererOption configures a MarkdownRenderer.
type RendererOption func(*MarkdownRenderer)

// WithRendererLogger sets a custom logger.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *MarkdownRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewMarkdownRenderer creates a renderer writing into dir.
func NewMarkdownRenderer(dir string, opts ...RendererOption) *MarkdownRenderer {
	r := &MarkdownRenderer{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the Markdown report and the metadata sidecar, returning
// the artifact paths. The legal complaint annex is always appended as the
// closing section; the QC gate's complaint-format check relies on that.
func (r *MarkdownRenderer) Render(req RenderRequest) (model.Artifacts, error) {
	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return model.Artifacts{}, fmt.Errorf("failed to create reports directory: %w", err)
	}

	docName := BaseName(ArtifactReport, req.Client.ClientID, req.Client.NameSlug, req.ReportID, req.Date)
	docPath := filepath.Join(r.dir, docName+".md")

	// Reports contain client PII; owner-only permissions.
	f, err := os.OpenFile(docPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return model.Artifacts{}, fmt.Errorf("failed to create report document: %w", err)
	}
	defer f.Close()

	if err := r.writeDocument(f, req); err != nil {
		return model.Artifacts{}, fmt.Errorf("failed to render report document: %w", err)
	}

	metaName := BaseName(ArtifactMetadata, req.Client.ClientID, req.Client.NameSlug, req.ReportID, req.Date)
	metaPath := filepath.Join(r.dir, metaName+".json")
	meta, err := json.MarshalIndent(req.Findings, "", "  ")
	if err != nil {
		return model.Artifacts{}, fmt.Errorf("failed to serialize findings metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, meta, 0600); err != nil {
		return model.Artifacts{}, fmt.Errorf("failed to write findings metadata: %w", err)
	}

	r.logger.Info("report rendered",
		"reportID", req.ReportID,
		"doc", docPath,
		"findings", len(req.Findings),
	)

	return model.Artifacts{
		FinalDocPath: docPath,
		MetadataPath: metaPath,
	}, nil
}

// writeDocument renders the Markdown body.
func (r *MarkdownRenderer) writeDocument(f *os.File, req RenderRequest) error {
	md := markdown.NewMarkdown(f)

	md.H1("MAPA-RD - Reporte de Inteligencia OSINT")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Campo", "Valor"},
		Rows: [][]string{
			{"Cliente", req.Client.FullName},
			{"ID Cliente", req.Client.ClientID},
			{"Reporte", req.ReportID},
			{"Intake", req.IntakeID},
			{"Tipo", string(req.ReportType)},
			{"Fecha", req.Date.Format("2006-01-02")},
		},
	})
	md.PlainText("")

	counts := countByTier(req.Findings)
	md.H2("Resumen de Riesgo")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Nivel", "Hallazgos"},
		Rows: [][]string{
			{"P0 (Crítico)", strconv.Itoa(counts[model.RiskP0])},
			{"P1 (Alto)", strconv.Itoa(counts[model.RiskP1])},
			{"P2 (Medio)", strconv.Itoa(counts[model.RiskP2])},
			{"P3 (Bajo)", strconv.Itoa(counts[model.RiskP3])},
			{"**Total**", "**" + strconv.Itoa(len(req.Findings)) + "**"},
		},
	})
	md.PlainText("")

	r.writeFindings(md, req.Findings)

	// Closing section: the legal complaint annex, appended unconditionally.
	md.H2("Anexo: Formato de Reclamación")
	md.PlainText("")
	md.PlainText("Se incluye el formato de reclamación ante la autoridad de " +
		"protección de datos, prellenado con los datos del titular, para su " +
		"presentación en caso de requerirse el ejercicio de derechos ARCO.")

	return md.Build()
}

// writeFindings renders one table per risk tier, most critical first.
// Tiers without findings are omitted.
func (r *MarkdownRenderer) writeFindings(md *markdown.Markdown, findings []model.Finding) {
	md.H2("Hallazgos")
	md.PlainText("")

	if len(findings) == 0 {
		md.PlainText("Sin hallazgos relevantes en fuentes abiertas.")
		md.PlainText("")
		return
	}

	for _, tier := range []model.RiskScore{model.RiskP0, model.RiskP1, model.RiskP2, model.RiskP3} {
		rows := make([][]string, 0)
		for _, f := range findings {
			if f.RiskScore != tier {
				continue
			}
			rows = append(rows, []string{
				f.Entity,
				string(f.Category),
				"`" + f.Value + "`",
				f.SourceName,
				f.RiskRationale,
			})
		}
		if len(rows) == 0 {
			continue
		}

		md.H3("Nivel " + string(tier))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Indicador", "Categoría", "Valor", "Fuente", "Justificación"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// WriteChecklist persists a QC verdict as JSON next to the report
// artifacts, named with the QC artifact type, and returns its path.
func (r *MarkdownRenderer) WriteChecklist(client *model.Client, reportID string, date time.Time, verdict qc.Verdict) (string, error) {
	name := BaseName(ArtifactQC, client.ClientID, client.NameSlug, reportID, date)
	path := filepath.Join(r.dir, name+".json")

	data, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize QC verdict: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write QC checklist: %w", err)
	}
	return path, nil
}

// countByTier tallies findings per risk tier.
func countByTier(findings []model.Finding) map[model.RiskScore]int {
	counts := make(map[model.RiskScore]int, 4)
	for _, f := range findings {
		counts[f.RiskScore]++
	}
	return counts
}
