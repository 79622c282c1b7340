package state

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugPattern is the only shape a client name slug may take. Slugs appear
// in artifact filenames and in the QC naming check, so the character set is
// deliberately narrow.
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// slugStripper decomposes accented characters and removes the combining
// marks, so "Pérez" becomes "Perez" and "Muñoz" becomes "Munoz".
var slugStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a client display name into its filename-safe slug:
// diacritics stripped, spaces replaced with underscores. Returns
// ErrInvalidSlug if the result still contains characters outside
// [A-Za-z0-9_], since such a name cannot participate in the naming
// convention.
func Slugify(displayName string) (string, error) {
	stripped, _, err := transform.String(slugStripper, displayName)
	if err != nil {
		// NFD normalization does not fail on valid UTF-8; fall back to the
		// raw name so validation below reports the real problem.
		stripped = displayName
	}

	slug := strings.ReplaceAll(strings.TrimSpace(stripped), " ", "_")
	if !slugPattern.MatchString(slug) {
		return "", ErrInvalidSlug
	}
	return slug, nil
}
