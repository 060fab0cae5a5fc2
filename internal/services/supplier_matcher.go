package services

import (
	"strings"

	"gatherly/api/internal/models"
)

// MatchCandidate pairs a supplier with its already-resolved publish gate verdict.
type MatchCandidate struct {
	Supplier models.Supplier
	Gate     GateResult
}

// MatchSuppliers filters a pre-ordered candidate list down to the invite set:
// publish-gate pass, optional category slug match, optional case-insensitive
// location needle match, truncated to limit. Input order is preserved (the
// caller pre-sorts verified-first, then newest).
func MatchSuppliers(candidates []MatchCandidate, categorySlug, locationNeedle string, limit int) []models.Supplier {
	slug := NormalizeSlug(categorySlug)
	needle := strings.ToLower(strings.TrimSpace(locationNeedle))

	matched := make([]models.Supplier, 0, limit)
	for _, c := range candidates {
		if !c.Gate.CanPublish {
			continue
		}
		if slug != "" && !hasCategory(c.Supplier.Categories, slug) {
			continue
		}
		if needle != "" && !matchesLocation(c.Supplier, needle) {
			continue
		}
		matched = append(matched, c.Supplier)
		if len(matched) == limit {
			break
		}
	}
	return matched
}

// NormalizeSlug lowercases, maps every non-alphanumeric run to a single
// hyphen, and trims leading/trailing hyphens.
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hasCategory(categories []string, slug string) bool {
	for _, c := range categories {
		if NormalizeSlug(c) == slug {
			return true
		}
	}
	return false
}

func matchesLocation(s models.Supplier, needle string) bool {
	haystack := strings.ToLower(s.LocationLabel + " " + s.City + " " + s.Postcode)
	return strings.Contains(haystack, needle)
}
