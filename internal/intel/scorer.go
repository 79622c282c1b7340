package intel

import (
	"fmt"
	"strings"

	"github.com/mapard/mapard/internal/model"
)

// sensitiveKeywords are substrings of a finding's value that force a P0
// score regardless of category: financial-institution names and credential
// material. All comparisons are against the lowercased value.
var sensitiveKeywords = []string{
	"banorte",
	"bbva",
	"santander",
	"banamex",
	"password",
	"contraseña",
	"token",
	"cvv",
}

// Scorer assigns a priority tier to each finding from category, entity,
// and keyword rules. It is deterministic and side-effect free: identical
// input always yields an identical score.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the finding with RiskScore and RiskRationale set; every
// other field is unchanged. Rule order, first match wins among the
// category rules:
//
//  1. Default P3 (low-impact public information).
//  2. Data Leak category or "Compromised Credentials" entity: P0.
//  3. Threat category: P1.
//  4. "Squatted/Similar Domain" entity: P2.
//  5. A sensitive keyword in the lowercased value forces P0 and overwrites
//     the rationale, always, even over rule 1's default. Keyword evidence
//     is a stronger signal than coarse categorical classification.
//
// Absent fields default to empty and simply fail to match; there are no
// error conditions.
func (s *Scorer) Score(f model.Finding) model.Finding {
	score := model.RiskP3
	rationale := "Información pública de bajo impacto."

	switch {
	case f.Category == model.CategoryDataLeak || f.Entity == "Compromised Credentials":
		score = model.RiskP0
		rationale = "CRÍTICO: Credenciales o datos privados expuestos en filtración."
	case f.Category == model.CategoryThreat:
		score = model.RiskP1
		rationale = "ALTO: Asociación con infraestructura maliciosa o listas negras."
	case f.Entity == "Squatted/Similar Domain":
		score = model.RiskP2
		rationale = "MEDIO: Posible campaña de suplantación detectada."
	}

	value := strings.ToLower(f.Value)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(value, kw) {
			score = model.RiskP0
			rationale = fmt.Sprintf("CRÍTICO: Palabra clave sensible detectada (%s).", kw)
			break
		}
	}

	f.RiskScore = score
	f.RiskRationale = rationale
	return f
}

// ScoreAll scores a batch of findings in place order.
func (s *Scorer) ScoreAll(findings []model.Finding) []model.Finding {
	scored := make([]model.Finding, len(findings))
	for i, f := range findings {
		scored[i] = s.Score(f)
	}
	return scored
}
