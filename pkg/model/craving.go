package model

import (
	"regexp"
	"strings"
)

const collectionPrefix = "restaurants_"

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)
	fillerPattern   = regexp.MustCompile(`(?i)\b(hot|spicy|tasty|delicious|yummy|good|nice|warm|fresh|best|real|authentic)\b`)
	spacePattern    = regexp.MustCompile(`\s+`)
	zipPattern      = regexp.MustCompile(`\b\d{5}\b`)
	addressZIP      = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	strictZIP       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// synonyms collapses near-duplicate craving phrasings onto one canonical term.
// Entries are matched on word boundaries, longest phrase first, so that
// "ramen noodles" wins over "noodles".
var synonyms = []struct {
	pattern   *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`\bramen noodles\b`), "ramen"},
	{regexp.MustCompile(`\bshawarma wrap\b`), "shawarma"},
	{regexp.MustCompile(`\bmexican tacos\b`), "mexican"},
	{regexp.MustCompile(`\bindian curry\b`), "indian"},
	{regexp.MustCompile(`\bnoodles\b`), "ramen"},
}

// NormalizeCraving converts free-form craving text into a canonical identifier:
// lowercase, every maximal run of non-alphanumeric characters becomes a single
// underscore, leading/trailing underscores trimmed. Empty input yields "".
// Idempotent, so names derived from it agree across fetch, build, and chat.
func NormalizeCraving(craving string) string {
	craving = strings.ToLower(strings.TrimSpace(craving))
	craving = nonAlnumPattern.ReplaceAllString(craving, "_")
	return strings.Trim(craving, "_")
}

// CleanCraving prepares craving text for search: lowercase, strip filler
// adjectives, collapse whitespace, then apply the synonym table.
func CleanCraving(craving string) string {
	craving = strings.ToLower(strings.TrimSpace(craving))
	craving = fillerPattern.ReplaceAllString(craving, " ")
	craving = strings.TrimSpace(spacePattern.ReplaceAllString(craving, " "))

	for _, syn := range synonyms {
		if syn.pattern.MatchString(craving) {
			return syn.canonical
		}
	}
	return craving
}

// CollectionName derives the vector store collection name for a ZIP code and
// an optional craving: restaurants_<zip> or restaurants_<zip>_<craving>.
func CollectionName(zipCode, craving string) string {
	name := collectionPrefix + zipCode
	if c := NormalizeCraving(craving); c != "" {
		name += "_" + c
	}
	return name
}

// ValidZIP reports whether s is a 5-digit ZIP code, with or without a +4 suffix.
func ValidZIP(s string) bool {
	return strictZIP.MatchString(s)
}

// ExtractZIP returns the first bare 5-digit ZIP code found in free text, or "".
func ExtractZIP(s string) string {
	return zipPattern.FindString(s)
}

// AddressZIP returns the first ZIP code found in a street address, tolerating
// a +4 suffix, or "".
func AddressZIP(addr string) string {
	return addressZIP.FindString(addr)
}
