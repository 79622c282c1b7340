package model

import "time"

// IntakeType classifies a unit of requested work.
//
// Design decision: We use typed string constants rather than iota-based
// integers because the values are part of the persisted state document and
// of artifact filenames. A typed string keeps the wire format stable while
// still preventing accidental assignment of arbitrary strings.
type IntakeType string

const (
	// IntakeBaseline is the initial full exposure assessment for a client.
	IntakeBaseline IntakeType = "BASELINE"

	// IntakeFrequency is a recurring scheduled re-assessment.
	IntakeFrequency IntakeType = "FREQUENCY"

	// IntakeIncident is an unscheduled assessment triggered by a client
	// incident. Incident intakes are counted against a monthly limit.
	IntakeIncident IntakeType = "INCIDENT"

	// IntakeRescue replaces a report that failed quality control or was
	// invalidated. A rescue intake always references the report it replaces.
	IntakeRescue IntakeType = "RESCUE"

	// IntakeMonthly is the regular monthly report cycle.
	IntakeMonthly IntakeType = "MONTHLY"

	// IntakeOnDemand is an ad-hoc CLI-driven run outside any schedule.
	IntakeOnDemand IntakeType = "ON_DEMAND"
)

// Valid reports whether t is a known intake type.
func (t IntakeType) Valid() bool {
	switch t {
	case IntakeBaseline, IntakeFrequency, IntakeIncident, IntakeRescue, IntakeMonthly, IntakeOnDemand:
		return true
	}
	return false
}

// IntakeStatus is the one-directional intake lifecycle:
// GENERADO -> AUTORIZADO -> EJECUTADO. No skipping, no reverting.
type IntakeStatus string

const (
	// IntakeGenerated means the intake exists but nobody has approved it yet.
	IntakeGenerated IntakeStatus = "GENERADO"

	// IntakeAuthorized means an operator approved the intake for execution.
	// Only authorized intakes are ever picked up by the scheduler.
	IntakeAuthorized IntakeStatus = "AUTORIZADO"

	// IntakeExecuted means the pipeline started processing the intake.
	// The flag is set before any external call so a crash mid-pipeline does
	// not re-trigger the scanner.
	IntakeExecuted IntakeStatus = "EJECUTADO"
)

// Valid reports whether s is a known intake status.
func (s IntakeStatus) Valid() bool {
	switch s {
	case IntakeGenerated, IntakeAuthorized, IntakeExecuted:
		return true
	}
	return false
}

// RequestedBy identifies the actor class that created an intake.
// Role names are recorded for the audit trail but are not
// cryptographically verified.
type RequestedBy string

const (
	// RequestedBySystem marks intakes created automatically by the pipeline,
	// such as rescue intakes after a QC failure.
	RequestedBySystem RequestedBy = "SYSTEM"

	// RequestedByAG marks intakes created by the managing operator.
	RequestedByAG RequestedBy = "AG"

	// RequestedByCLIUser marks intakes created interactively from the CLI.
	RequestedByCLIUser RequestedBy = "CLI_USER"
)

// Valid reports whether r is a known requester.
func (r RequestedBy) Valid() bool {
	switch r {
	case RequestedBySystem, RequestedByAG, RequestedByCLIUser:
		return true
	}
	return false
}

// Intake is a unit of requested work tied to exactly one client.
type Intake struct {
	// IntakeID is derived from the client and a per-client sequence,
	// in the form I-<7-digit client id>-<4-digit seq>.
	IntakeID string `json:"intake_id"`

	// ClientID is the owning client's 7-digit identifier.
	ClientID string `json:"client_id"`

	// IntakeType classifies the requested work.
	IntakeType IntakeType `json:"intake_type"`

	// Status is the current lifecycle state.
	Status IntakeStatus `json:"intake_status"`

	// RequestedBy records who asked for this work.
	RequestedBy RequestedBy `json:"requested_by"`

	// ReplacesReportID references the invalidated report a RESCUE intake
	// replaces. It is required and non-empty only for RESCUE intakes.
	ReplacesReportID string `json:"replaces_report_id,omitempty"`

	// Domains and Emails are the client identity assets attached to this
	// intake. The pipeline resolves its scan target from them: first listed
	// domain, else first listed email, else the client name slug.
	Domains []string `json:"domains,omitempty"`
	Emails  []string `json:"emails,omitempty"`

	// OverLimit flags an INCIDENT intake created past the client's monthly
	// incident limit. The flag is advisory: creation is never blocked, but
	// authorization requires a separate cost-approval step.
	OverLimit bool `json:"over_limit,omitempty"`

	// CreatedAt is when the intake record was created.
	CreatedAt time.Time `json:"created_at"`

	// AuthorizedAt is when the intake entered AUTORIZADO. Zero until then.
	AuthorizedAt time.Time `json:"authorized_at,omitzero"`

	// ExecutedAt is when pipeline execution began. Zero until then.
	ExecutedAt time.Time `json:"executed_at,omitzero"`
}
