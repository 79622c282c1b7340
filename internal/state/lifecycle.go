package state

import (
	"fmt"

	"github.com/mapard/mapard/internal/model"
)

// intakeTransitions is the complete intake state machine. Anything not
// listed here is an illegal edge.
var intakeTransitions = map[model.IntakeStatus][]model.IntakeStatus{
	model.IntakeGenerated:  {model.IntakeAuthorized},
	model.IntakeAuthorized: {model.IntakeExecuted},
}

// reportTransitions is the report state machine, minus the escape edge
// GENERADO -> INVALIDADO which UpdateReportStatus special-cases for
// immediate QC failure before any send attempt.
var reportTransitions = map[model.ReportStatus][]model.ReportStatus{
	model.ReportGenerated: {model.ReportInReview},
	model.ReportInReview:  {model.ReportTacitlyApproved, model.ReportObjected},
	model.ReportObjected:  {model.ReportInvalidated},
}

// IntakeOptions carries the optional attributes of a new intake.
type IntakeOptions struct {
	// ReplacesReportID references the invalidated report a RESCUE intake
	// replaces. Mandatory for RESCUE, ignored otherwise.
	ReplacesReportID string

	// Domains and Emails are the identity assets the scan target is
	// resolved from.
	Domains []string
	Emails  []string
}

// CreateIntake validates and records a new intake in GENERADO state,
// allocating the client's next intake sequence.
//
// For INCIDENT intakes the client's monthly counter is lazily reset when a
// new calendar month is observed, then incremented; exceeding the monthly
// limit only flags the intake as over-limit. Creation is never blocked:
// authorizing an over-limit incident requires a cost approval that happens
// outside this store.
func (s *Store) CreateIntake(clientID string, intakeType model.IntakeType, requestedBy model.RequestedBy, opts IntakeOptions) (string, error) {
	if !intakeType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidIntakeType, intakeType)
	}
	if !requestedBy.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRequestedBy, requestedBy)
	}
	if intakeType == model.IntakeRescue && opts.ReplacesReportID == "" {
		return "", ErrRescueNeedsReport
	}

	client, err := s.Client(clientID)
	if err != nil {
		return "", err
	}

	now := s.now()
	overLimit := false
	if intakeType == model.IntakeIncident {
		month := now.Format("2006-01")
		if client.IncidentMonthKey != month {
			client.IncidentCountMonth = 0
			client.IncidentMonthKey = month
		}
		client.IncidentCountMonth++
		overLimit = client.IncidentCountMonth > client.IncidentLimitMonth
		if overLimit {
			s.logger.Warn("incident intake over monthly limit",
				"clientID", clientID,
				"count", client.IncidentCountMonth,
				"limit", client.IncidentLimitMonth,
			)
		}
	}

	seq := s.nextIntakeSeq(client)
	intakeID := fmt.Sprintf("I-%s-%04d", clientID, seq)

	replaces := ""
	if intakeType == model.IntakeRescue {
		replaces = opts.ReplacesReportID
	}

	s.doc.Intakes[intakeID] = &model.Intake{
		IntakeID:         intakeID,
		ClientID:         clientID,
		IntakeType:       intakeType,
		Status:           model.IntakeGenerated,
		RequestedBy:      requestedBy,
		ReplacesReportID: replaces,
		Domains:          opts.Domains,
		Emails:           opts.Emails,
		OverLimit:        overLimit,
		CreatedAt:        now,
	}
	client.IntakeIDs = append(client.IntakeIDs, intakeID)

	s.appendLog(model.EntityIntake, intakeID, "CREATE", "", string(model.IntakeGenerated), string(requestedBy), "")
	if err := s.persist(); err != nil {
		return "", err
	}

	s.logger.Info("intake created", "intakeID", intakeID, "type", intakeType, "requestedBy", requestedBy)
	return intakeID, nil
}

// UpdateIntakeStatus moves an intake along GENERADO -> AUTORIZADO ->
// EJECUTADO. Any other edge fails with an InvalidTransitionError and
// leaves the intake unchanged.
func (s *Store) UpdateIntakeStatus(intakeID string, to model.IntakeStatus, actor string) error {
	intake, err := s.Intake(intakeID)
	if err != nil {
		return err
	}

	from := intake.Status
	if !to.Valid() || !containsStatus(intakeTransitions[from], to) {
		return &InvalidTransitionError{Entity: "intake", ID: intakeID, From: string(from), To: string(to)}
	}

	intake.Status = to
	now := s.now()
	switch to {
	case model.IntakeAuthorized:
		intake.AuthorizedAt = now
	case model.IntakeExecuted:
		intake.ExecutedAt = now
	}

	s.appendLog(model.EntityIntake, intakeID, "STATUS_CHANGE", string(from), string(to), actor, "")
	return s.persist()
}

// CreateReport records a new report in GENERADO state with a PENDIENTE QC
// verdict, allocating the client's next report sequence.
func (s *Store) CreateReport(clientID, intakeID string, reportType model.IntakeType) (string, error) {
	client, err := s.Client(clientID)
	if err != nil {
		return "", err
	}
	if !reportType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidIntakeType, reportType)
	}

	seq := s.nextReportSeq(client)
	reportID := fmt.Sprintf("R-%s-%04d", clientID, seq)

	s.doc.Reports[reportID] = &model.Report{
		ReportID:   reportID,
		ClientID:   clientID,
		IntakeID:   intakeID,
		ReportType: reportType,
		Status:     model.ReportGenerated,
		QCStatus:   model.QCPending,
		CreatedAt:  s.now(),
	}
	client.ReportIDs = append(client.ReportIDs, reportID)

	s.appendLog(model.EntityReport, reportID, "CREATE", "", string(model.ReportGenerated), string(model.RequestedBySystem), "")
	if err := s.persist(); err != nil {
		return "", err
	}

	s.logger.Info("report created", "reportID", reportID, "intakeID", intakeID, "type", reportType)
	return reportID, nil
}

// SetReportArtifacts records the produced file paths on a report.
func (s *Store) SetReportArtifacts(reportID string, artifacts model.Artifacts) error {
	report, err := s.Report(reportID)
	if err != nil {
		return err
	}
	report.Artifacts = artifacts
	return s.persist()
}

// UpdateReportStatus moves a report along its state machine. Entering
// EN_REVISION stamps sent_at and review_deadline_at = sent_at + 48h.
// Moving to INVALIDADO requires a valid reason; every other target must
// arrive without one. The escape edge GENERADO -> INVALIDADO is allowed
// only for immediate QC failure, which is exactly the QC_FAIL reason.
func (s *Store) UpdateReportStatus(reportID string, to model.ReportStatus, actor string, reason model.InvalidatedReason) error {
	report, err := s.Report(reportID)
	if err != nil {
		return err
	}

	from := report.Status
	escapeEdge := from == model.ReportGenerated && to == model.ReportInvalidated
	if !to.Valid() || (!escapeEdge && !containsStatus(reportTransitions[from], to)) {
		return &InvalidTransitionError{Entity: "report", ID: reportID, From: string(from), To: string(to)}
	}

	if to == model.ReportInvalidated {
		if !reason.Valid() {
			return ErrMissingInvalidatedReason
		}
		if escapeEdge && reason != model.InvalidatedQCFail {
			return fmt.Errorf("%w: %q", ErrEscapeNeedsQCFail, reason)
		}
		report.InvalidatedReason = reason
	}

	report.Status = to
	if to == model.ReportInReview {
		report.SentAt = s.now()
		report.ReviewDeadlineAt = report.SentAt.Add(model.ReviewWindow)
	}

	s.appendLog(model.EntityReport, reportID, "STATUS_CHANGE", string(from), string(to), actor, string(reason))
	return s.persist()
}

// UpdateQCStatus finalizes a report's QC verdict. The verdict transitions
// exactly once away from PENDIENTE; a second attempt fails with
// ErrQCFinalized. PENDIENTE itself is never a target: the only edges are
// PENDIENTE -> APROBADO and PENDIENTE -> FALLIDO.
func (s *Store) UpdateQCStatus(reportID string, to model.QCStatus, actor string) error {
	report, err := s.Report(reportID)
	if err != nil {
		return err
	}

	if report.QCStatus != model.QCPending {
		return fmt.Errorf("%w: %s", ErrQCFinalized, report.QCStatus)
	}
	if !to.Valid() || to == model.QCPending {
		return fmt.Errorf("%w: %q", ErrInvalidQCStatus, to)
	}

	from := report.QCStatus
	report.QCStatus = to

	s.appendLog(model.EntityReport, reportID, "QC_CHANGE", string(from), string(to), actor, "")
	return s.persist()
}

// containsStatus reports whether target is in the allowed set.
func containsStatus[T comparable](allowed []T, target T) bool {
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}
