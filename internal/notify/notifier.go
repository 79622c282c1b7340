package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Notifier errors.
var (
	// ErrNoRecipients is returned when a send request lists nobody to
	// deliver to.
	ErrNoRecipients = errors.New("no recipients specified")

	// ErrAttachmentMissing is returned when the report artifact referenced
	// by a send request does not exist on disk.
	ErrAttachmentMissing = errors.New("attachment missing")
)

// Request describes one report dispatch.
type Request struct {
	// Recipients are the destination addresses.
	Recipients []string

	// ArtifactPath is the report file to attach.
	ArtifactPath string

	// ClientName is used in the subject and body.
	ClientName string

	// ReportID identifies the report for the subject line and logs.
	ReportID string
}

// Notifier delivers a report package to its recipients. Send returns the
// transport's message ID on success.
type Notifier interface {
	Send(ctx context.Context, req Request) (messageID string, err error)
}

// subject builds the operator-facing subject line. The trailing report
// number is the sequence portion of the report ID.
func subject(req Request) string {
	number := "000"
	if i := strings.LastIndex(req.ReportID, "-"); i >= 0 && i+1 < len(req.ReportID) {
		number = req.ReportID[i+1:]
	}
	return fmt.Sprintf("Reporte MAPA-RD #%s | %s", number, req.ClientName)
}

// body builds the default message body.
func body(req Request) string {
	return fmt.Sprintf("Buen día,\n\n"+
		"Se adjunta el Reporte de Inteligencia OSINT correspondiente al análisis realizado para %s.\n\n"+
		"El documento presenta una evaluación estructurada de la huella digital identificada en fuentes abiertas.\n\n"+
		"Atentamente,\nMAPA-RD\n", req.ClientName)
}
