package model

import "time"

// ReviewWindow is the period after sending during which a client may object
// to a report. If no objection arrives within the window, the report is
// considered tacitly approved.
const ReviewWindow = 48 * time.Hour

// ReportStatus is the report lifecycle:
//
//	GENERADO -> EN_REVISION -> {APROBADO_TACITO | OBJETADO -> INVALIDADO}
//
// plus a direct GENERADO -> INVALIDADO edge reserved for immediate QC
// failure before any send attempt. The status never regresses.
type ReportStatus string

const (
	// ReportGenerated means the artifact was produced but not yet sent.
	ReportGenerated ReportStatus = "GENERADO"

	// ReportInReview means the report was dispatched and the 48-hour review
	// window is running.
	ReportInReview ReportStatus = "EN_REVISION"

	// ReportTacitlyApproved means the review window elapsed with no
	// objection from the client.
	ReportTacitlyApproved ReportStatus = "APROBADO_TACITO"

	// ReportObjected means the client raised an objection during review.
	ReportObjected ReportStatus = "OBJETADO"

	// ReportInvalidated is terminal: the report failed QC or was confirmed
	// erroneous after an objection.
	ReportInvalidated ReportStatus = "INVALIDADO"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportGenerated, ReportInReview, ReportTacitlyApproved, ReportObjected, ReportInvalidated:
		return true
	}
	return false
}

// QCStatus is the quality-control verdict. It transitions exactly once away
// from PENDIENTE; a second attempt to set it is an error.
type QCStatus string

const (
	// QCPending means the checklist has not run yet.
	QCPending QCStatus = "PENDIENTE"

	// QCApproved means every checklist item passed.
	QCApproved QCStatus = "APROBADO"

	// QCFailed means at least one checklist item failed.
	QCFailed QCStatus = "FALLIDO"
)

// Valid reports whether s is a known QC status.
func (s QCStatus) Valid() bool {
	switch s {
	case QCPending, QCApproved, QCFailed:
		return true
	}
	return false
}

// InvalidatedReason explains why a report became INVALIDADO. It is required
// exactly when the status becomes INVALIDADO.
type InvalidatedReason string

const (
	// InvalidatedQCFail marks reports invalidated by a failed QC checklist.
	InvalidatedQCFail InvalidatedReason = "QC_FAIL"

	// InvalidatedClientError marks reports invalidated after a client
	// objection was confirmed as a real error.
	InvalidatedClientError InvalidatedReason = "CLIENT_ERROR_REAL"
)

// Valid reports whether r is a known invalidation reason.
func (r InvalidatedReason) Valid() bool {
	return r == InvalidatedQCFail || r == InvalidatedClientError
}

// Artifacts holds the filesystem references of a produced report package.
type Artifacts struct {
	// FinalDocPath is the path of the rendered client-facing document.
	FinalDocPath string `json:"final_doc_path,omitempty"`

	// MetadataPath is the path of the machine-readable findings sidecar.
	MetadataPath string `json:"metadata_path,omitempty"`

	// ARCOPaths lists the generated legal-annex files (ARCO rights
	// exercises), one per provider.
	ARCOPaths []string `json:"arco_paths,omitempty"`

	// QCChecklistPath is the path of the persisted QC checklist JSON.
	QCChecklistPath string `json:"qc_checklist_path,omitempty"`
}

// Report is one generated artifact tied to exactly one intake.
type Report struct {
	// ReportID has the form R-<7-digit client id>-<4-digit seq>.
	ReportID string `json:"report_id"`

	// ClientID is the owning client's identifier.
	ClientID string `json:"client_id"`

	// IntakeID is the intake this report fulfills.
	IntakeID string `json:"intake_id"`

	// ReportType mirrors the intake type that produced this report.
	ReportType IntakeType `json:"report_type"`

	// Status is the current report lifecycle state.
	Status ReportStatus `json:"report_status"`

	// QCStatus is the write-once quality-control verdict.
	QCStatus QCStatus `json:"qc_status"`

	// InvalidatedReason is set iff Status is INVALIDADO.
	InvalidatedReason InvalidatedReason `json:"invalidated_reason,omitempty"`

	// Artifacts references the produced files on disk.
	Artifacts Artifacts `json:"artifacts"`

	// CreatedAt is when the report record was created.
	CreatedAt time.Time `json:"created_at"`

	// SentAt is when the report entered EN_REVISION. Zero until sent.
	SentAt time.Time `json:"sent_at,omitzero"`

	// ReviewDeadlineAt is SentAt plus the 48-hour review window. A report
	// in EN_REVISION always has a non-zero deadline.
	ReviewDeadlineAt time.Time `json:"review_deadline_at,omitzero"`
}
