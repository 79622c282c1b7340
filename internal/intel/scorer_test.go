package intel

import (
	"strings"
	"testing"

	"github.com/mapard/mapard/internal/model"
)

// TestScore tests the category and keyword scoring rules.
func TestScore(t *testing.T) {
	t.Parallel()

	s := NewScorer()

	tests := []struct {
		name    string
		finding model.Finding
		want    model.RiskScore
	}{
		{
			name:    "public information defaults to P3",
			finding: model.Finding{Category: model.CategorySocialFootprint, Value: "twitter.com/juan"},
			want:    model.RiskP3,
		},
		{
			name:    "data leak is P0",
			finding: model.Finding{Category: model.CategoryDataLeak, Value: "juan@example.com [breach]"},
			want:    model.RiskP0,
		},
		{
			name:    "compromised credentials entity is P0 regardless of category",
			finding: model.Finding{Category: model.CategoryContact, Entity: "Compromised Credentials", Value: "x"},
			want:    model.RiskP0,
		},
		{
			name:    "threat is P1",
			finding: model.Finding{Category: model.CategoryThreat, Value: "1.2.3.4"},
			want:    model.RiskP1,
		},
		{
			name:    "squatted domain is P2",
			finding: model.Finding{Category: model.CategoryIdentity, Entity: "Squatted/Similar Domain", Value: "juanperez.co"},
			want:    model.RiskP2,
		},
		{
			name:    "bank keyword forces P0 over the P3 default",
			finding: model.Finding{Category: model.CategoryFootprint, Value: "perfil banorte de juan"},
			want:    model.RiskP0,
		},
		{
			name:    "password keyword forces P0 over the P3 default",
			finding: model.Finding{Category: model.CategoryFootprint, Value: "dump con Password incluido"},
			want:    model.RiskP0,
		},
		{
			name:    "keyword overrides a P1 category rule",
			finding: model.Finding{Category: model.CategoryThreat, Value: "phishing bbva clone"},
			want:    model.RiskP0,
		},
		{
			name:    "keyword overrides a P2 entity rule",
			finding: model.Finding{Category: model.CategoryIdentity, Entity: "Squatted/Similar Domain", Value: "santander-mx.co"},
			want:    model.RiskP0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Score(tt.finding)
			if got.RiskScore != tt.want {
				t.Errorf("RiskScore = %s, want %s (rationale: %s)", got.RiskScore, tt.want, got.RiskRationale)
			}
			if got.RiskRationale == "" {
				t.Error("RiskRationale must never be empty")
			}
		})
	}
}

// TestScore_Deterministic tests that repeated scoring never changes the
// outcome.
func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	f := model.Finding{Category: model.CategoryThreat, Value: "phishing contraseña"}

	first := s.Score(f)
	second := s.Score(f)
	if first.RiskScore != second.RiskScore || first.RiskRationale != second.RiskRationale {
		t.Errorf("scoring is not deterministic: %+v vs %+v", first, second)
	}
}

// TestScore_KeywordCaseInsensitive tests lowercased keyword comparison.
func TestScore_KeywordCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	got := s.Score(model.Finding{Category: model.CategoryFootprint, Value: "TOKEN de acceso"})
	if got.RiskScore != model.RiskP0 {
		t.Errorf("RiskScore = %s, want P0 for uppercase keyword", got.RiskScore)
	}
	if !strings.Contains(got.RiskRationale, "token") {
		t.Errorf("rationale %q should name the matched keyword", got.RiskRationale)
	}
}

// TestScoreAll tests batch scoring preserves order and leaves input intact.
func TestScoreAll(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	findings := []model.Finding{
		{FindingID: "one", Category: model.CategoryDataLeak, Value: "x"},
		{FindingID: "two", Category: model.CategoryFootprint, Value: "y"},
	}

	scored := s.ScoreAll(findings)
	if len(scored) != 2 {
		t.Fatalf("scored = %d, want 2", len(scored))
	}
	if scored[0].FindingID != "one" || scored[1].FindingID != "two" {
		t.Error("batch scoring must preserve order")
	}
	if scored[0].RiskScore != model.RiskP0 || scored[1].RiskScore != model.RiskP3 {
		t.Errorf("scores = %s, %s; want P0, P3", scored[0].RiskScore, scored[1].RiskScore)
	}
	if findings[0].RiskScore != "" {
		t.Error("input slice must not be mutated")
	}
}
