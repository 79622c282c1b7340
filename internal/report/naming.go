package report

import (
	"fmt"
	"time"
)

// ArtifactType is the file-type token of the naming convention.
type ArtifactType string

// Artifact type tokens, in the order they appear through a client's life:
// onboarding paperwork, intake records, the report itself, legal annexes,
// QC evidence, and machine-readable metadata.
const (
	ArtifactClientData ArtifactType = "DATOS_CLIENTE"
	ArtifactOnboarding ArtifactType = "ONBOARDING"
	ArtifactIntake     ArtifactType = "INTAKE"
	ArtifactReport     ArtifactType = "REPORTE"
	ArtifactARCO       ArtifactType = "ARCO"
	ArtifactQC         ArtifactType = "QC"
	ArtifactMetadata   ArtifactType = "METADATA"
)

// BaseName builds the extension-less artifact name:
//
//	MAPA-RD - <ARTIFACT_TYPE> - <7-digit client id> - <slug> - <ref id> - <ISO date>
//
// refID is a report or intake identifier (R-0000000-0000 / I-0000000-0000).
// The result must satisfy qc.ValidateFilename; the convention lives in two
// places on purpose, producer here and verifier in the gate.
func BaseName(t ArtifactType, clientID, slug, refID string, date time.Time) string {
	return fmt.Sprintf("MAPA-RD - %s - %s - %s - %s - %s", t, clientID, slug, refID, date.Format("2006-01-02"))
}
