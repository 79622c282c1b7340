package state

import (
	"errors"
	"fmt"
)

// Store operation errors.
//
// Design decision: We use package-level sentinel errors for conditions the
// caller branches on (errors.Is), and a dedicated InvalidTransitionError
// type for illegal state transitions so diagnostics can name the exact
// rejected edge.
var (
	// ErrUnknownClient is returned when an operation references a client ID
	// that does not exist in the store.
	ErrUnknownClient = errors.New("unknown client")

	// ErrUnknownIntake is returned when an operation references an intake ID
	// that does not exist in the store.
	ErrUnknownIntake = errors.New("unknown intake")

	// ErrUnknownReport is returned when an operation references a report ID
	// that does not exist in the store.
	ErrUnknownReport = errors.New("unknown report")

	// ErrInvalidIntakeType is returned when an intake type is outside the
	// known enum.
	ErrInvalidIntakeType = errors.New("invalid intake type")

	// ErrInvalidRequestedBy is returned when the requesting actor is outside
	// the known enum.
	ErrInvalidRequestedBy = errors.New("invalid requested_by actor")

	// ErrRescueNeedsReport is returned when a RESCUE intake is created
	// without the report it replaces.
	ErrRescueNeedsReport = errors.New("replaces_report_id is mandatory for RESCUE intake")

	// ErrQCFinalized is returned on a second attempt to set a report's QC
	// status. The verdict is write-once after PENDIENTE.
	ErrQCFinalized = errors.New("QC already finalized")

	// ErrInvalidQCStatus is returned when a QC verdict is outside the known enum.
	ErrInvalidQCStatus = errors.New("invalid QC status")

	// ErrMissingInvalidatedReason is returned when a report is moved to
	// INVALIDADO without a reason.
	ErrMissingInvalidatedReason = errors.New("invalidated_reason required for INVALIDADO")

	// ErrEscapeNeedsQCFail is returned when the GENERADO -> INVALIDADO edge
	// is attempted with any reason other than QC_FAIL. A never-sent report
	// can only die of a failed quality gate; client objections come later
	// in the machine.
	ErrEscapeNeedsQCFail = errors.New("GENERADO -> INVALIDADO is reserved for QC_FAIL")

	// ErrInvalidClientType is returned when a client type is outside the
	// known enum.
	ErrInvalidClientType = errors.New("invalid client type")

	// ErrInvalidSlug is returned when a sanitized client name still contains
	// characters outside [A-Za-z0-9_].
	ErrInvalidSlug = errors.New("client name slug contains invalid characters")
)

// InvalidTransitionError reports an attempted state transition that is not
// an edge of the entity's state machine. The entity is left unchanged.
type InvalidTransitionError struct {
	// Entity is "intake" or "report".
	Entity string

	// ID is the entity identifier.
	ID string

	// From and To name the rejected edge.
	From string
	To   string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition for %s: %s -> %s", e.Entity, e.ID, e.From, e.To)
}
