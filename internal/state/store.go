package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mapard/mapard/internal/model"
)

// document is the persisted shape of the store: a single structured JSON
// document with top-level collections keyed by their IDs, rewritten
// wholesale on every mutation. There is no incremental diff format.
type document struct {
	Clients map[string]*model.Client `json:"clients"`
	Intakes map[string]*model.Intake `json:"intakes"`
	Reports map[string]*model.Report `json:"reports"`
	Logs    []model.EventLog         `json:"logs"`
}

// Store holds all client, intake, and report records plus the audit log,
// mirrored to durable storage after every mutating call.
//
// Design decision: write-through with no batching. Volumes are small
// (tens of clients, hundreds of work items) and the pipeline is
// single-threaded, so correctness wins over throughput. Multi-process
// access to the same state file is not supported.
type Store struct {
	// path is the location of the persisted state document.
	path string

	// now supplies timestamps. Injectable so tests can control time.
	now func() time.Time

	// logger is used for structured logging of store activity.
	logger *slog.Logger

	doc document
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source. Used by tests and by the
// tacit-approval sweep to evaluate deadlines against a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the state document at path, creating an empty one (and its
// parent directory) if none exists yet.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the state document from disk, initializing an empty document
// if the file does not exist.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = document{
			Clients: make(map[string]*model.Client),
			Intakes: make(map[string]*model.Intake),
			Reports: make(map[string]*model.Report),
			Logs:    make([]model.EventLog, 0),
		}
		return s.persist()
	}
	if err != nil {
		return fmt.Errorf("failed to read state document: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return fmt.Errorf("failed to parse state document %s: %w", s.path, err)
	}

	// Older documents may predate one of the collections.
	if s.doc.Clients == nil {
		s.doc.Clients = make(map[string]*model.Client)
	}
	if s.doc.Intakes == nil {
		s.doc.Intakes = make(map[string]*model.Intake)
	}
	if s.doc.Reports == nil {
		s.doc.Reports = make(map[string]*model.Report)
	}
	return nil
}

// persist rewrites the whole state document. The write goes to a temporary
// file first and is renamed into place so a crash cannot leave a truncated
// document behind.
func (s *Store) persist() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state document: %w", err)
	}

	tmp := s.path + ".tmp"
	// State documents hold client PII; owner-only permissions.
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state document: %w", err)
	}
	return nil
}

// appendLog records one audit entry. The log is append-only; nothing ever
// rewrites or prunes it. Callers persist afterwards.
func (s *Store) appendLog(entity model.EntityType, id, action, from, to, actor, notes string) {
	s.doc.Logs = append(s.doc.Logs, model.EventLog{
		Timestamp:  s.now(),
		EntityType: entity,
		EntityID:   id,
		Action:     action,
		FromState:  from,
		ToState:    to,
		Actor:      actor,
		Notes:      notes,
	})
}

// Client returns the client record for id, or ErrUnknownClient.
func (s *Store) Client(id string) (*model.Client, error) {
	c, ok := s.doc.Clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, id)
	}
	return c, nil
}

// Intake returns the intake record for id, or ErrUnknownIntake.
func (s *Store) Intake(id string) (*model.Intake, error) {
	i, ok := s.doc.Intakes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntake, id)
	}
	return i, nil
}

// Report returns the report record for id, or ErrUnknownReport.
func (s *Store) Report(id string) (*model.Report, error) {
	r, ok := s.doc.Reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, id)
	}
	return r, nil
}

// Clients returns all client records in unspecified order.
func (s *Store) Clients() []*model.Client {
	out := make([]*model.Client, 0, len(s.doc.Clients))
	for _, c := range s.doc.Clients {
		out = append(out, c)
	}
	return out
}

// Intakes returns all intake records in unspecified order.
func (s *Store) Intakes() []*model.Intake {
	out := make([]*model.Intake, 0, len(s.doc.Intakes))
	for _, i := range s.doc.Intakes {
		out = append(out, i)
	}
	return out
}

// Reports returns all report records in unspecified order.
func (s *Store) Reports() []*model.Report {
	out := make([]*model.Report, 0, len(s.doc.Reports))
	for _, r := range s.doc.Reports {
		out = append(out, r)
	}
	return out
}

// Logs returns a copy of the audit trail in append order.
func (s *Store) Logs() []model.EventLog {
	out := make([]model.EventLog, len(s.doc.Logs))
	copy(out, s.doc.Logs)
	return out
}
