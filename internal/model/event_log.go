package model

import "time"

// EntityType names the kind of record an audit entry refers to.
type EntityType string

const (
	// EntityClient marks audit entries about client records.
	EntityClient EntityType = "CLIENT"

	// EntityIntake marks audit entries about intake records.
	EntityIntake EntityType = "INTAKE"

	// EntityReport marks audit entries about report records.
	EntityReport EntityType = "REPORT"
)

// EventLog is one entry of the append-only audit trail. An entry is written
// on every state mutation across clients, intakes, and reports, and is never
// rewritten or pruned by normal operation.
type EventLog struct {
	Timestamp  time.Time  `json:"timestamp"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Action     string     `json:"action"`
	FromState  string     `json:"from_state,omitempty"`
	ToState    string     `json:"to_state"`
	Actor      string     `json:"actor"`
	Notes      string     `json:"notes,omitempty"`
}
