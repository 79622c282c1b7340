package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mapard/mapard/internal/model"
	"github.com/mapard/mapard/internal/qc"
)

// DB is the evidence archive handle. It manages a single SQLite file per
// installation.
//
// Design decision: one database for all clients rather than a file per
// client. Cross-client queries (QC failure rates, finding statistics) stay
// trivial and backup is a single file copy.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures archive behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended; the pipeline is
	// a single writer but WAL keeps readers (dashboards, ad-hoc queries)
	// from blocking it.
	EnableWAL bool
}

// DefaultOptions returns the default archive options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive at dir/evidence.db.
func Open(dir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dir, "evidence.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check archive path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: rw forbids creation, rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite supports only one writer; a pool of one avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return a, nil
}

// Close closes the archive.
func (a *DB) Close() error {
	return a.db.Close()
}

// createTables creates the archive schema if it doesn't exist.
func (a *DB) createTables() error {
	schema := `
	-- Raw scanner output, verbatim, one row per intake execution
	CREATE TABLE IF NOT EXISTS scan_evidence (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		intake_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		target TEXT NOT NULL,
		raw_output BLOB,
		event_count INTEGER DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_evidence_intake ON scan_evidence(intake_id);
	CREATE INDEX IF NOT EXISTS idx_evidence_client ON scan_evidence(client_id);

	-- Scored findings per report
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		intake_id TEXT NOT NULL,
		finding_id TEXT NOT NULL,
		entity TEXT,
		category TEXT,
		value TEXT,
		event_type TEXT,
		source_name TEXT,
		risk_score TEXT,
		risk_rationale TEXT,
		confidence REAL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_findings_report ON findings(report_id);
	CREATE INDEX IF NOT EXISTS idx_findings_fid ON findings(finding_id);

	-- QC verdict history, append-only
	CREATE TABLE IF NOT EXISTS qc_verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		qc_status TEXT NOT NULL,
		checklist_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_qc_report ON qc_verdicts(report_id);
	`
	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScanEvidence stores one intake execution's raw scanner output
// verbatim. Evidence is persisted before any processing so it survives a
// downstream failure.
func (a *DB) SaveScanEvidence(ctx context.Context, intakeID, clientID, target string, raw []byte, eventCount int) error {
	query := `
	INSERT INTO scan_evidence (intake_id, client_id, target, raw_output, event_count)
	VALUES (?, ?, ?, ?, ?)
	`
	if _, err := a.db.ExecContext(ctx, query, intakeID, clientID, target, raw, eventCount); err != nil {
		return fmt.Errorf("failed to save scan evidence: %w", err)
	}
	return nil
}

// SaveFindings stores the scored findings of one report.
func (a *DB) SaveFindings(ctx context.Context, reportID, intakeID string, findings []model.Finding) error {
	query := `
	INSERT INTO findings (report_id, intake_id, finding_id, entity, category, value,
		event_type, source_name, risk_score, risk_rationale, confidence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, f := range findings {
		_, err := a.db.ExecContext(ctx, query,
			reportID, intakeID,
			f.FindingID, f.Entity, string(f.Category), f.Value,
			f.EventType, f.SourceName, string(f.RiskScore), f.RiskRationale, f.Confidence,
		)
		if err != nil {
			return fmt.Errorf("failed to save finding %s: %w", f.FindingID, err)
		}
	}
	return nil
}

// SaveQCVerdict appends one QC verdict to the history.
func (a *DB) SaveQCVerdict(ctx context.Context, verdict qc.Verdict) error {
	checklistJSON, err := json.Marshal(verdict.Checklist)
	if err != nil {
		return fmt.Errorf("failed to serialize checklist: %w", err)
	}

	query := `
	INSERT INTO qc_verdicts (report_id, qc_status, checklist_json)
	VALUES (?, ?, ?)
	`
	if _, err := a.db.ExecContext(ctx, query, verdict.ReportID, string(verdict.QCStatus), string(checklistJSON)); err != nil {
		return fmt.Errorf("failed to save QC verdict: %w", err)
	}
	return nil
}

// FindingsByReport returns the stored findings of a report in insertion
// order.
func (a *DB) FindingsByReport(ctx context.Context, reportID string) ([]model.Finding, error) {
	query := `
	SELECT finding_id, entity, category, value, event_type, source_name,
		risk_score, risk_rationale, confidence, timestamp
	FROM findings
	WHERE report_id = ?
	ORDER BY id
	`

	rows, err := a.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var f model.Finding
		var category, riskScore, timestamp string
		if err := rows.Scan(
			&f.FindingID, &f.Entity, &category, &f.Value, &f.EventType,
			&f.SourceName, &riskScore, &f.RiskRationale, &f.Confidence, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.Category = model.Category(category)
		f.RiskScore = model.RiskScore(riskScore)
		f.CapturedAt = parseTimestamp(timestamp)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// EvidenceRecord summarizes one stored scan execution.
type EvidenceRecord struct {
	ID         int64
	IntakeID   string
	ClientID   string
	Target     string
	EventCount int
	Timestamp  time.Time
}

// EvidenceByClient returns evidence metadata for a client, most recent
// first. Raw output is not loaded; fetch it with RawEvidence when needed.
func (a *DB) EvidenceByClient(ctx context.Context, clientID string) ([]EvidenceRecord, error) {
	query := `
	SELECT id, intake_id, client_id, target, event_count, timestamp
	FROM scan_evidence
	WHERE client_id = ?
	ORDER BY timestamp DESC
	`

	rows, err := a.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var records []EvidenceRecord
	for rows.Next() {
		var r EvidenceRecord
		var timestamp string
		if err := rows.Scan(&r.ID, &r.IntakeID, &r.ClientID, &r.Target, &r.EventCount, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan evidence record: %w", err)
		}
		r.Timestamp = parseTimestamp(timestamp)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RawEvidence returns the verbatim scanner output of one evidence record.
func (a *DB) RawEvidence(ctx context.Context, id int64) ([]byte, error) {
	var raw []byte
	err := a.db.QueryRowContext(ctx, `SELECT raw_output FROM scan_evidence WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw evidence: %w", err)
	}
	return raw, nil
}

// QCHistory returns the QC verdict history of a report, most recent first.
func (a *DB) QCHistory(ctx context.Context, reportID string) ([]qc.Verdict, error) {
	query := `
	SELECT qc_status, checklist_json, timestamp
	FROM qc_verdicts
	WHERE report_id = ?
	ORDER BY timestamp DESC
	`

	rows, err := a.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query QC history: %w", err)
	}
	defer rows.Close()

	var verdicts []qc.Verdict
	for rows.Next() {
		var v qc.Verdict
		var status, checklistJSON, timestamp string
		if err := rows.Scan(&status, &checklistJSON, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan QC verdict: %w", err)
		}
		v.ReportID = reportID
		v.QCStatus = model.QCStatus(status)
		v.Timestamp = parseTimestamp(timestamp)
		if err := json.Unmarshal([]byte(checklistJSON), &v.Checklist); err != nil {
			continue // Skip malformed rows
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a SQLite timestamp, trying each known format.
// Returns zero time if nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
