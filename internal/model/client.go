package model

import "time"

// ClientType distinguishes natural persons (PF, persona física) from legal
// entities (PM, persona moral). It affects billing and report templates,
// not pipeline behavior.
type ClientType string

const (
	// ClientPF is a natural person.
	ClientPF ClientType = "PF"

	// ClientPM is a legal entity.
	ClientPM ClientType = "PM"
)

// Valid reports whether t is a known client type.
func (t ClientType) Valid() bool {
	return t == ClientPF || t == ClientPM
}

// DefaultIncidentLimit is the number of incident intakes a client may
// request per calendar month before the over-limit flag is raised.
const DefaultIncidentLimit = 2

// Client is a billing and reporting subject.
//
// Invariants: ClientID is unique and immutable once assigned; NameSlug
// contains only letters, digits, and underscores; the incident counter is
// lazily reset the first time a new calendar month is observed.
type Client struct {
	// ClientID is a 7-digit zero-padded numeric string, stable for a given
	// normalized name.
	ClientID string `json:"client_id"`

	// FullName is the client's display name as provided at intake.
	FullName string `json:"client_name_full"`

	// NameSlug is the ASCII-sanitized form of FullName used in filenames
	// and for idempotent identity resolution.
	NameSlug string `json:"client_name_slug"`

	// Type is PF or PM.
	Type ClientType `json:"client_type"`

	// IncidentCountMonth is the number of INCIDENT intakes created in the
	// month identified by IncidentMonthKey.
	IncidentCountMonth int `json:"incident_count_month"`

	// IncidentLimitMonth is the advisory monthly incident limit.
	IncidentLimitMonth int `json:"incident_limit_month"`

	// IncidentMonthKey is the year-month ("2006-01") the incident counter
	// refers to. A mismatch with the current month triggers a lazy reset.
	IncidentMonthKey string `json:"incident_month_key"`

	// ReportSeq and IntakeSeq are monotonic per-client sequence counters.
	// They are never reused and never decremented.
	ReportSeq int `json:"report_seq"`
	IntakeSeq int `json:"intake_seq"`

	// IntakeIDs and ReportIDs list the work items owned by this client in
	// creation order.
	IntakeIDs []string `json:"intakes"`
	ReportIDs []string `json:"reports"`

	// LastValidReportID is the most recent report that reached tacit
	// approval. Empty until the first approval.
	LastValidReportID string `json:"last_valid_report_id,omitempty"`

	// CreatedAt is when the client record was first created.
	CreatedAt time.Time `json:"created_at"`
}
