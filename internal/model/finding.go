package model

import "time"

// Category is the fixed taxonomy a normalized finding belongs to.
type Category string

const (
	// CategoryContact covers reachable identity data: emails, phones, addresses.
	CategoryContact Category = "Contact"

	// CategoryIdentity covers names, handles, domains, and hosts.
	CategoryIdentity Category = "Identity"

	// CategoryThreat covers associations with malicious or blacklisted
	// infrastructure.
	CategoryThreat Category = "Threat"

	// CategoryDataLeak covers compromised credentials and exposed files.
	CategoryDataLeak Category = "Data Leak"

	// CategorySocialFootprint covers externally owned accounts.
	CategorySocialFootprint Category = "Social Footprint"

	// CategoryFootprint is the fallback for unrecognized event types.
	CategoryFootprint Category = "Footprint"
)

// RiskScore is the priority tier assigned by the scorer. P0 is the most
// critical tier and P3 the least.
type RiskScore string

const (
	// RiskP0 marks critical exposure: leaked credentials, sensitive data,
	// or high-sensitivity keyword matches.
	RiskP0 RiskScore = "P0"

	// RiskP1 marks high risk: association with malicious infrastructure.
	RiskP1 RiskScore = "P1"

	// RiskP2 marks medium risk, such as squatted or look-alike domains.
	RiskP2 RiskScore = "P2"

	// RiskP3 marks low-impact public information. It is the default tier.
	RiskP3 RiskScore = "P3"
)

// RawEvent is a single record returned by the external scanner.
// Confidence is scanner-native, scaled 0-100; nil means the scanner did
// not score the event, which is treated as full confidence rather than
// none.
type RawEvent struct {
	Type       string   `json:"type"`
	Data       string   `json:"data"`
	Module     string   `json:"module"`
	URL        string   `json:"url,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Finding is a single normalized piece of intelligence.
//
// FindingID is a pure function of (EventType, Value): two findings with
// identical type and value always collide to the same ID regardless of
// source or timestamp. That collision is the deduplication contract.
// The same real-world fact reported under two different raw type spellings
// produces two distinct IDs and is not merged; see the deduplication notes
// in internal/intel.
type Finding struct {
	// FindingID is the hex-truncated content hash of "type:value".
	FindingID string `json:"finding_id"`

	// Entity is the human-facing label, e.g. "Compromised Credentials".
	Entity string `json:"entity"`

	// Category places the finding in the fixed taxonomy.
	Category Category `json:"category"`

	// Value is the raw observed string.
	Value string `json:"value"`

	// EventType is the raw scanner event type the finding came from.
	EventType string `json:"event_type"`

	// SourceName is the scanner module that produced the event.
	SourceName string `json:"source_name"`

	// URL is where the value was observed, when the scanner reports one.
	URL string `json:"url,omitempty"`

	// RiskScore and RiskRationale are set by the scorer. All other fields
	// are immutable after normalization.
	RiskScore     RiskScore `json:"risk_score,omitempty"`
	RiskRationale string    `json:"risk_rationale,omitempty"`

	// Confidence is scaled from the scanner's 0-100 range to 0.0-1.0.
	Confidence float64 `json:"confidence"`

	// CapturedAt is when the finding was normalized.
	CapturedAt time.Time `json:"captured_at"`
}
