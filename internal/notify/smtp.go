package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"time"
)

// smtpMaxRetries bounds transient-failure retries before a hard failure
// surfaces to the coordinator.
const smtpMaxRetries = 3

// SMTPConfig carries the transport settings for real mail delivery.
type SMTPConfig struct {
	// Host and Port locate the SMTP server. Port 465 selects implicit TLS;
	// any other port uses STARTTLS when UseTLS is set.
	Host string
	Port int

	// User and Password authenticate against the server. Both empty means
	// no authentication.
	User     string
	Password string

	// UseTLS enables STARTTLS on non-465 ports.
	UseTLS bool

	// Sender is the From address.
	Sender string

	// OverrideTo, when set, reroutes every message to a single address.
	// Used in staging so real clients never receive test traffic.
	OverrideTo string
}

// SMTPNotifier sends reports over SMTP with a small fixed number of
// retries and exponential backoff for transient failures.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *slog.Logger

	// sleep is swapped out by tests to avoid real backoff delays.
	sleep func(time.Duration)
}

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithSMTPLogger sets a custom logger.
func WithSMTPLogger(logger *slog.Logger) SMTPOption {
	return func(n *SMTPNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewSMTPNotifier creates an SMTP notifier. It validates that the minimum
// transport settings are present.
func NewSMTPNotifier(cfg SMTPConfig, opts ...SMTPOption) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp backend selected but host/port missing")
	}
	if cfg.Sender == "" {
		cfg.Sender = "noreply@mapa-rd.com"
	}

	n := &SMTPNotifier{
		cfg:    cfg,
		logger: slog.Default(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Send delivers one report. Transient transport errors are retried up to
// smtpMaxRetries times with exponential backoff; the last error surfaces
// if all attempts fail.
func (n *SMTPNotifier) Send(ctx context.Context, req Request) (string, error) {
	if len(req.Recipients) == 0 {
		return "", ErrNoRecipients
	}

	recipients := req.Recipients
	if n.cfg.OverrideTo != "" {
		n.logger.Warn("recipient override active",
			"effective", n.cfg.OverrideTo,
			"original", req.Recipients,
		)
		recipients = []string{n.cfg.OverrideTo}
	}

	messageID := fmt.Sprintf("<%d.%s@mapa-rd>", time.Now().UnixNano(), req.ReportID)
	msg, err := buildMessage(n.cfg.Sender, recipients, messageID, req)
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(n.cfg.Host, fmt.Sprintf("%d", n.cfg.Port))

	var lastErr error
	for attempt := 1; attempt <= smtpMaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n.logger.Info("email send attempt",
			"reportID", req.ReportID,
			"attempt", attempt,
			"host", n.cfg.Host,
		)

		if err := n.deliver(addr, recipients, msg); err != nil {
			lastErr = err
			if attempt < smtpMaxRetries {
				backoff := time.Duration(1<<attempt) * time.Second
				n.logger.Warn("email send retry",
					"reportID", req.ReportID,
					"attempt", attempt,
					"backoff", backoff,
					"error", err,
				)
				n.sleep(backoff)
			}
			continue
		}

		n.logger.Info("email sent", "reportID", req.ReportID, "messageID", messageID)
		return messageID, nil
	}

	n.logger.Error("email send failed after retries",
		"reportID", req.ReportID,
		"error", lastErr,
	)
	return "", fmt.Errorf("smtp delivery failed: %w", lastErr)
}

// deliver performs one SMTP conversation.
func (n *SMTPNotifier) deliver(addr string, recipients []string, msg []byte) error {
	var client *smtp.Client
	var err error

	if n.cfg.Port == 465 {
		conn, dialErr := tls.Dial("tcp", addr, &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12})
		if dialErr != nil {
			return dialErr
		}
		client, err = smtp.NewClient(conn, n.cfg.Host)
	} else {
		client, err = smtp.Dial(addr)
	}
	if err != nil {
		return err
	}
	defer client.Close()

	if n.cfg.Port != 465 && n.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}

	if n.cfg.User != "" && n.cfg.Password != "" {
		auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(n.cfg.Sender); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage assembles a multipart MIME message with the report attached.
func buildMessage(sender string, recipients []string, messageID string, req Request) ([]byte, error) {
	attachment, err := os.ReadFile(req.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAttachmentMissing, req.ArtifactPath)
	}

	const boundary = "mapard-report-boundary"
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: MAPA-RD <%s>\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", joinAddrs(recipients))
	fmt.Fprintf(&buf, "Reply-To: %s\r\n", sender)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject(req)))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body(req))
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/octet-stream\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filepath.Base(req.ArtifactPath))

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 0 {
		n := min(76, len(encoded))
		buf.WriteString(encoded[:n])
		buf.WriteString("\r\n")
		encoded = encoded[n:]
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}

// joinAddrs renders a recipient header value.
func joinAddrs(addrs []string) string {
	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
