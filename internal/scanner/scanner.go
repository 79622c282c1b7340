package scanner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mapard/mapard/internal/model"
)

// json is a drop-in replacement for encoding/json tuned for the line-heavy
// decode loop below.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultScanTimeout bounds one external scan invocation. Reconnaissance
// runs fan out to many passive sources, so the bound is generous; on
// expiry the scan degrades to empty results.
const DefaultScanTimeout = 10 * time.Minute

// Result carries one scan's parsed events together with the tool's raw
// output. The raw bytes are returned so the caller can persist evidence
// verbatim before any processing touches it.
type Result struct {
	// Events are the parsed raw event records, one per well-formed
	// output line. Malformed lines are skipped.
	Events []model.RawEvent

	// Raw is the scanner's stdout exactly as produced.
	Raw []byte
}

// Scanner produces raw reconnaissance events for a target.
type Scanner interface {
	// Scan runs a reconnaissance pass against target. Implementations
	// return an empty result, not an error, when the tool is unavailable
	// or produces nothing.
	Scan(ctx context.Context, target string) (Result, error)
}

// CLIScanner invokes the reconnaissance tool as a subprocess and parses
// its line-delimited JSON output.
type CLIScanner struct {
	// interpreter is the executable that runs the tool script, typically
	// "python3".
	interpreter string

	// scriptPath is the path of the tool's entry script.
	scriptPath string

	// timeout bounds one invocation.
	timeout time.Duration

	// logger is used for structured logging.
	logger *slog.Logger
}

// CLIOption configures a CLIScanner.
type CLIOption func(*CLIScanner)

// WithScanTimeout overrides the per-invocation timeout.
func WithScanTimeout(d time.Duration) CLIOption {
	return func(s *CLIScanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScanLogger sets a custom logger.
func WithScanLogger(logger *slog.Logger) CLIOption {
	return func(s *CLIScanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCLIScanner creates a scanner that runs interpreter scriptPath.
func NewCLIScanner(interpreter, scriptPath string, opts ...CLIOption) *CLIScanner {
	s := &CLIScanner{
		interpreter: interpreter,
		scriptPath:  scriptPath,
		timeout:     DefaultScanTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one reconnaissance pass. The tool is invoked as
//
//	<interpreter> <script> -s <target> -o json -q
//
// and its stdout is parsed line by line. Any failure mode, including a
// missing tool, degrades to an empty Result with a nil error.
func (s *CLIScanner) Scan(ctx context.Context, target string) (Result, error) {
	if _, err := os.Stat(s.scriptPath); err != nil {
		s.logger.Error("scanner tool not found; proceeding with empty results",
			"script", s.scriptPath,
			"error", err,
		)
		return Result{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.interpreter, s.scriptPath, "-s", target, "-o", "json", "-q")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Info("invoking scanner", "target", target, "script", s.scriptPath)
	start := time.Now()

	if err := cmd.Run(); err != nil {
		s.logger.Warn("scanner invocation failed; treating as no data",
			"target", target,
			"error", err,
			"stderr", truncate(stderr.String(), 400),
			"elapsed", time.Since(start),
		)
		return Result{}, nil
	}

	raw := stdout.Bytes()
	events := ParseEvents(raw)

	s.logger.Info("scan completed",
		"target", target,
		"events", len(events),
		"elapsed", time.Since(start),
	)
	return Result{Events: events, Raw: raw}, nil
}

// ParseEvents decodes line-delimited JSON scanner output. Blank and
// malformed lines are skipped; a tool crash mid-stream still yields every
// complete line before the crash.
func ParseEvents(raw []byte) []model.RawEvent {
	events := make([]model.RawEvent, 0)
	for line := range bytes.Lines(raw) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var ev model.RawEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// truncate limits a diagnostic string to n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
