package intel

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/mapard/mapard/internal/model"
)

// findingIDLength is the hex length finding IDs are truncated to. 64 bits
// of a SHA-256 digest is ample for the volumes a single client produces.
const findingIDLength = 16

// indicatorEntry pairs the taxonomy category with the human-facing label
// for one raw event type.
type indicatorEntry struct {
	category model.Category
	entity   string
}

// indicatorMap maps the scanner's technical event-type vocabulary to
// (category, entity label) pairs. Event types missing from the map fall
// back to (Footprint, titlecased type).
var indicatorMap = map[string]indicatorEntry{
	"EMAILADDR":              {model.CategoryContact, "Email"},
	"PHONE_NUMBER":           {model.CategoryContact, "Phone"},
	"PHYSICAL_ADDRESS":       {model.CategoryContact, "Address"},
	"EMAILADDR_COMPROMISED":  {model.CategoryDataLeak, "Compromised Credentials"},
	"ACCOUNT_EXTERNAL_OWNED": {model.CategorySocialFootprint, "External Account"},
	"HUMAN_NAME":             {model.CategoryIdentity, "Full Name"},
	"USERNAME":               {model.CategoryIdentity, "Handle/User"},
	"DOMAIN_NAME":            {model.CategoryIdentity, "Domain"},
	"INTERNET_NAME":          {model.CategoryIdentity, "Host/Subdomain"},
	"MALICIOUS_IPADDR":       {model.CategoryThreat, "Malicious IP"},
	"MALICIOUS_AFFILIATE_IPADDR": {model.CategoryThreat, "Malicious Host"},
	"BLACKLISTED_IPADDR":     {model.CategoryThreat, "Blacklisted IP"},
	"INTERESTING_FILE":       {model.CategoryDataLeak, "Sensitive File Exposed"},
	"RAW_FILE_META_DATA":     {model.CategoryDataLeak, "Document Metadata"},
	"SIMILARDOMAIN":          {model.CategoryIdentity, "Squatted/Similar Domain"},
}

// Normalizer maps raw scan events to the canonical finding shape and
// computes each finding's deterministic content hash.
type Normalizer struct {
	// now supplies the captured-at timestamp. Injectable for tests.
	now func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerClock overrides the normalizer's time source.
func WithNormalizerClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FindingID computes the deterministic identity of a finding as the
// hex-truncated SHA-256 of "eventType:value". The colon join avoids
// trivial concatenation collisions ("AB"+"C" vs "A"+"BC"). Two findings
// with identical type and value always collide to the same ID regardless
// of source or timestamp; that collision is what the deduplicator keys on.
//
// Known asymmetry: the same real-world fact reported under two raw type
// spellings (DOMAIN_NAME vs INTERNET_NAME for one value) hashes to two
// distinct IDs and is not merged. Downstream reporting may depend on
// seeing both labeled occurrences, so this is kept as-is.
func FindingID(eventType, value string) string {
	sum := sha256.Sum256([]byte(eventType + ":" + value))
	return hex.EncodeToString(sum[:])[:findingIDLength]
}

// Normalize converts one raw scanner event into a finding. It returns
// false for malformed or empty events, which are skipped rather than
// errored: a partially usable scan is worth more than no scan.
func (n *Normalizer) Normalize(ev model.RawEvent) (model.Finding, bool) {
	if ev.Type == "" || ev.Data == "" {
		return model.Finding{}, false
	}

	category, entity := classify(ev.Type)

	source := ev.Module
	if source == "" {
		source = "Internal"
	}

	// An unscored event counts as full confidence, not zero: the scanner
	// omits the field when it has no doubt to express.
	confidence := 1.0
	if ev.Confidence != nil {
		confidence = *ev.Confidence / 100.0
	}

	return model.Finding{
		FindingID:  FindingID(ev.Type, ev.Data),
		Entity:     entity,
		Category:   category,
		Value:      ev.Data,
		EventType:  ev.Type,
		SourceName: source,
		URL:        ev.URL,
		Confidence: confidence,
		CapturedAt: n.now(),
	}, true
}

// NormalizeAll normalizes a batch of raw events, dropping the malformed ones.
func (n *Normalizer) NormalizeAll(events []model.RawEvent) []model.Finding {
	findings := make([]model.Finding, 0, len(events))
	for _, ev := range events {
		if f, ok := n.Normalize(ev); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// classify resolves the category and entity label for a raw event type.
// The MALICIOUS/BLACKLISTED substring checks run before the table lookup:
// threat evidence in the type name outranks whatever the table would say.
func classify(eventType string) (model.Category, string) {
	switch {
	case strings.Contains(eventType, "MALICIOUS"):
		return model.CategoryThreat, "Malicious Association"
	case strings.Contains(eventType, "BLACKLISTED"):
		return model.CategoryThreat, "Blacklisted Association"
	}
	if entry, ok := indicatorMap[eventType]; ok {
		return entry.category, entry.entity
	}
	return model.CategoryFootprint, titlecase(eventType)
}

// titlecase turns RAW_EVENT_TYPE into "Raw Event Type" for the fallback
// entity label.
func titlecase(eventType string) string {
	words := strings.Split(strings.ToLower(strings.ReplaceAll(eventType, "_", " ")), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
