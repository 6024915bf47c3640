package catalog

import "regexp"

// Classification is the search-strategy hint derived from a raw term.
type Classification int

const (
	// FreeText terms go straight to the name/brand matching paths.
	FreeText Classification = iota
	// ProviderIDLikely terms get a cross-reference lookup first. This is a
	// heuristic, not a guarantee; callers must fall back on a miss.
	ProviderIDLikely
)

// Provider part numbers are dense alphanumeric tokens without separators;
// free-text queries carry spaces or punctuation.
var providerIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,}$`)

// Classify decides whether a term plausibly denotes a provider part number.
func Classify(term string) Classification {
	if providerIDPattern.MatchString(term) {
		return ProviderIDLikely
	}
	return FreeText
}
