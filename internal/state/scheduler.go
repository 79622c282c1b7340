package state

import (
	"sort"
	"time"

	"github.com/mapard/mapard/internal/model"
)

// priorityRank encodes the mandatory global ordering of pending work:
// rescue work always preempts everything. Types outside the map sort last.
var priorityRank = map[model.IntakeType]int{
	model.IntakeRescue:    0,
	model.IntakeIncident:  1,
	model.IntakeFrequency: 2,
	model.IntakeBaseline:  3,
}

// rank returns the scheduling rank for an intake type. Unlisted types
// (MONTHLY, ON_DEMAND) sort after every listed one.
func rank(t model.IntakeType) int {
	if r, ok := priorityRank[t]; ok {
		return r
	}
	return len(priorityRank) + 1
}

// PendingByPriority returns every AUTORIZADO intake ordered by
// (priority rank, creation time) ascending. Intakes still in GENERADO are
// never included; they must not be picked up before an operator authorizes
// them.
//
// The sort is stable with ties broken by creation order, so repeated calls
// over unchanged state always return the same sequence.
func (s *Store) PendingByPriority() []*model.Intake {
	pending := make([]*model.Intake, 0)
	for _, intake := range s.doc.Intakes {
		if intake.Status == model.IntakeAuthorized {
			pending = append(pending, intake)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ri, rj := rank(pending[i].IntakeType), rank(pending[j].IntakeType)
		if ri != rj {
			return ri < rj
		}
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		// Map iteration order is random; fall back to the ID so equal
		// timestamps still order deterministically.
		return pending[i].IntakeID < pending[j].IntakeID
	})
	return pending
}

// SweepTacitApprovals transitions every EN_REVISION report whose review
// deadline has passed to APROBADO_TACITO and records it as the owning
// client's last valid report. Re-running the sweep after a transition is a
// no-op for that report. Returns the IDs of reports approved in this pass.
func (s *Store) SweepTacitApprovals(now time.Time) ([]string, error) {
	approved := make([]string, 0)
	for reportID, report := range s.doc.Reports {
		if report.Status != model.ReportInReview || report.ReviewDeadlineAt.IsZero() {
			continue
		}
		if !now.After(report.ReviewDeadlineAt) {
			continue
		}

		if err := s.UpdateReportStatus(reportID, model.ReportTacitlyApproved, string(model.RequestedBySystem), ""); err != nil {
			return approved, err
		}

		client, err := s.Client(report.ClientID)
		if err != nil {
			return approved, err
		}
		client.LastValidReportID = reportID
		if err := s.persist(); err != nil {
			return approved, err
		}

		s.logger.Info("tacit approval", "reportID", reportID, "deadline", report.ReviewDeadlineAt)
		approved = append(approved, reportID)
	}

	sort.Strings(approved)
	return approved, nil
}

// FindOrphanedIntakes returns intakes marked EJECUTADO that have no report
// record, sorted by execution time. An orphan means the pipeline crashed
// between marking execution and creating the report; the system never
// auto-repairs these, it only surfaces them so an operator can create a
// RESCUE intake or re-run.
func (s *Store) FindOrphanedIntakes() []*model.Intake {
	covered := make(map[string]bool, len(s.doc.Reports))
	for _, report := range s.doc.Reports {
		covered[report.IntakeID] = true
	}

	orphans := make([]*model.Intake, 0)
	for _, intake := range s.doc.Intakes {
		if intake.Status == model.IntakeExecuted && !covered[intake.IntakeID] {
			orphans = append(orphans, intake)
		}
	}

	sort.Slice(orphans, func(i, j int) bool {
		if !orphans[i].ExecutedAt.Equal(orphans[j].ExecutedAt) {
			return orphans[i].ExecutedAt.Before(orphans[j].ExecutedAt)
		}
		return orphans[i].IntakeID < orphans[j].IntakeID
	})
	return orphans
}
