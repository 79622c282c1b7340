package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StubNotifier records what would have been sent instead of dispatching
// mail. Each send writes one JSON record into an outbox directory, so the
// behavior is durable and inspectable in environments without SMTP
// credentials.
type StubNotifier struct {
	// outboxDir is where send records are written.
	outboxDir string

	// now supplies timestamps. Injectable for tests.
	now func() time.Time

	logger *slog.Logger
}

// StubOption configures a StubNotifier.
type StubOption func(*StubNotifier)

// WithStubClock overrides the stub's time source.
func WithStubClock(now func() time.Time) StubOption {
	return func(n *StubNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// WithStubLogger sets a custom logger.
func WithStubLogger(logger *slog.Logger) StubOption {
	return func(n *StubNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewStubNotifier creates a stub notifier writing into outboxDir.
func NewStubNotifier(outboxDir string, opts ...StubOption) *StubNotifier {
	n := &StubNotifier{
		outboxDir: outboxDir,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// outboxRecord is the durable shape of one stubbed send.
type outboxRecord struct {
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	MessageID string    `json:"message_id"`
	Client    string    `json:"client"`
	Artifact  string    `json:"artifact"`
	SentAt    time.Time `json:"sent_at"`
}

// Send records the dispatch in the outbox. The artifact must exist on
// disk, mirroring the real transport's attachment requirement, so the
// stub catches the same class of mistakes.
func (n *StubNotifier) Send(_ context.Context, req Request) (string, error) {
	if len(req.Recipients) == 0 {
		return "", ErrNoRecipients
	}
	if req.ArtifactPath != "" {
		if _, err := os.Stat(req.ArtifactPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrAttachmentMissing, req.ArtifactPath)
		}
	}

	if err := os.MkdirAll(n.outboxDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create outbox directory: %w", err)
	}

	now := n.now()
	messageID := fmt.Sprintf("<stub.%d.%s@mapa-rd>", now.UnixNano(), req.ReportID)

	record := outboxRecord{
		To:        req.Recipients,
		Subject:   subject(req),
		MessageID: messageID,
		Client:    req.ClientName,
		Artifact:  req.ArtifactPath,
		SentAt:    now,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize outbox record: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", now.Format("20060102_150405"), req.ReportID)
	path := filepath.Join(n.outboxDir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write outbox record: %w", err)
	}

	n.logger.Info("stub send recorded", "reportID", req.ReportID, "outbox", path)
	return messageID, nil
}
