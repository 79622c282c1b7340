package state

import (
	"fmt"
	"strconv"

	"github.com/mapard/mapard/internal/model"
)

// ResolveOrCreateClientID returns the stable client ID for a display name,
// creating the client if the normalized name has never been seen.
//
// Resolution is deterministic by sanitized slug: the same normalized name
// always yields the same ID, so calling this twice is idempotent. New IDs
// are the smallest unused positive integer zero-padded to 7 digits, not
// max+1, so that IDs freed by administrative purges are reused instead of
// growing unbounded.
func (s *Store) ResolveOrCreateClientID(displayName string, clientType model.ClientType) (string, error) {
	slug, err := Slugify(displayName)
	if err != nil {
		return "", fmt.Errorf("cannot derive slug from %q: %w", displayName, err)
	}
	if !clientType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidClientType, clientType)
	}

	for id, c := range s.doc.Clients {
		if c.NameSlug == slug {
			return id, nil
		}
	}

	id := s.smallestUnusedClientID()
	now := s.now()
	s.doc.Clients[id] = &model.Client{
		ClientID:           id,
		FullName:           displayName,
		NameSlug:           slug,
		Type:               clientType,
		IncidentLimitMonth: model.DefaultIncidentLimit,
		IncidentMonthKey:   now.Format("2006-01"),
		IntakeIDs:          make([]string, 0),
		ReportIDs:          make([]string, 0),
		CreatedAt:          now,
	}

	s.appendLog(model.EntityClient, id, "CREATE", "", "CREATED", string(model.RequestedBySystem), "")
	if err := s.persist(); err != nil {
		return "", err
	}

	s.logger.Info("client created", "clientID", id, "slug", slug)
	return id, nil
}

// smallestUnusedClientID scans existing numeric IDs and returns the first
// hole starting from 1, formatted to 7 digits.
func (s *Store) smallestUnusedClientID() string {
	used := make(map[int]bool, len(s.doc.Clients))
	for id := range s.doc.Clients {
		if n, err := strconv.Atoi(id); err == nil {
			used[n] = true
		}
	}

	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("%07d", n)
}

// nextIntakeSeq atomically increments and returns the client's intake
// sequence. Sequences are never reused and never decremented. The caller
// persists as part of its own mutation.
func (s *Store) nextIntakeSeq(c *model.Client) int {
	c.IntakeSeq++
	return c.IntakeSeq
}

// nextReportSeq atomically increments and returns the client's report
// sequence.
func (s *Store) nextReportSeq(c *model.Client) int {
	c.ReportSeq++
	return c.ReportSeq
}
