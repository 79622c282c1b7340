package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mapard"

	// DefaultScanTimeout bounds one reconnaissance scan. Passive OSINT
	// sweeps query many slow external sources, so the bound is generous.
	DefaultScanTimeout = 10 * time.Minute

	// DefaultScannerInterpreter runs the reconnaissance tool script.
	DefaultScannerInterpreter = "python3"

	// DefaultSMTPPort is the implicit-TLS submission port. Port 465 was
	// chosen over 587 because the consultancy's provider rejects
	// STARTTLS downgrades on 587.
	DefaultSMTPPort = 465

	// DefaultNotifierBackend selects the stub outbox. Real SMTP dispatch
	// is opt-in; a misconfigured default must never email a client.
	DefaultNotifierBackend = "stub"
)

// Config holds all runtime options. It is populated from defaults, the
// optional YAML file, environment variables, and CLI flags, then passed
// through the application by dependency injection rather than global state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The option count is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// StateFile is the path of the JSON state document holding clients,
	// intakes, reports, and the audit log.
	StateFile string `yaml:"state_file"`

	// ReportsDir is where report packages and QC checklists are written.
	ReportsDir string `yaml:"reports_dir"`

	// EvidenceDir is where raw scanner output is stored verbatim.
	EvidenceDir string `yaml:"evidence_dir"`

	// OutboxDir is where the stub notifier records would-be sends.
	OutboxDir string `yaml:"outbox_dir"`

	// ArchiveDir is where the SQLite evidence archive lives. Empty
	// disables archival.
	ArchiveDir string `yaml:"archive_dir"`

	// ScannerInterpreter and ScannerScript invoke the external
	// reconnaissance tool. An empty script path degrades every scan to
	// empty results instead of failing.
	ScannerInterpreter string `yaml:"scanner_interpreter"`
	ScannerScript      string `yaml:"scanner_script"`

	// ScanTimeout bounds one scanner invocation.
	ScanTimeout time.Duration `yaml:"scan_timeout"`

	// NotifierBackend selects the dispatch transport: "stub" or "smtp".
	NotifierBackend string `yaml:"notifier_backend"`

	// SMTP carries the mail transport settings. Credentials never come
	// from YAML; they are read from the environment by LoadEnv.
	SMTP SMTPSettings `yaml:"smtp"`

	// Verbose enables debug-level log output.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the explicit YAML file path, when given.
	ConfigFilePath string `yaml:"-"`
}

// SMTPSettings is the mail transport portion of the configuration.
type SMTPSettings struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	UseTLS bool   `yaml:"use_tls"`
	Sender string `yaml:"sender"`

	// OverrideTo reroutes every message to one address. Set in staging so
	// real clients never receive test traffic.
	OverrideTo string `yaml:"override_to"`

	// User and Password are populated from the environment only.
	User     string `yaml:"-"`
	Password string `yaml:"-"`
}

// NewConfig creates a Config with default values. Defaults are safe for a
// fresh installation: XDG-standard storage locations and the stub
// notifier.
//
// Design decision: a constructor instead of relying on zero values,
// because most defaults are non-zero. It also documents what the defaults
// are.
func NewConfig() *Config {
	dataDir := XDGDataDir()
	return &Config{
		StateFile:          filepath.Join(dataDir, "state.json"),
		ReportsDir:         filepath.Join(dataDir, "reports"),
		EvidenceDir:        filepath.Join(dataDir, "evidence"),
		OutboxDir:          filepath.Join(dataDir, "outbox"),
		ArchiveDir:         filepath.Join(dataDir, "archive"),
		ScannerInterpreter: DefaultScannerInterpreter,
		ScanTimeout:        DefaultScanTimeout,
		NotifierBackend:    DefaultNotifierBackend,
		SMTP: SMTPSettings{
			Port:   DefaultSMTPPort,
			UseTLS: true,
		},
	}
}

// XDGDataDir returns the XDG data directory.
// On Linux: ~/.local/share/mapard
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory.
// On Linux: ~/.config/mapard
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any work begins, so failures
// surface upfront with a clear message.
func (c *Config) Validate() error {
	if c.StateFile == "" {
		return ErrNoStateFile
	}
	if c.ReportsDir == "" {
		return ErrNoReportsDir
	}
	if c.ScanTimeout <= 0 {
		return ErrInvalidScanTimeout
	}

	switch c.NotifierBackend {
	case "stub", "smtp":
	default:
		return ErrInvalidNotifierBackend
	}

	if c.NotifierBackend == "smtp" {
		if c.SMTP.Host == "" || c.SMTP.Port == 0 {
			return ErrSMTPIncomplete
		}
	}
	return nil
}
