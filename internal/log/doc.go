// Package log provides secure logging with automatic sanitization of
// sensitive information, built on top of the standard slog package.
//
// The pipeline handles client PII and mail credentials, and its logs are
// routinely shared for debugging. The SecureHandler masks:
//   - Mail transport credentials (SMTP passwords, tokens, API keys)
//   - Secret values detected by pattern matching (JWT, Bearer, Basic auth)
//   - Mexican personal identifiers (CURP, RFC) appearing as log values
//
// Even in verbose mode, sensitive values are masked so a pasted log never
// leaks a credential or a client identifier.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("smtp configured",
//	    "smtp_password", "hunter2",  // masked
//	    "host", "mail.example.com",  // kept
//	)
//
//	slog.SetDefault(logger)
package log
