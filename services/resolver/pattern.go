package resolver

import (
	"regexp"
)

// A YouTube video id is exactly 11 characters, none of which may be a
// '#', '&' or '?'. Every structural pattern encodes that shape directly
// instead of trusting the surrounding URL.
var (
	// Loose "youtube-like" token used as a fast reject before running the
	// structural patterns on unrelated text.
	basePattern = regexp.MustCompile(`(?i)youtu\.?be`)

	structuralPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtu\.be/([^#&?]{11})`), // youtu.be/<id>
		regexp.MustCompile(`\?v=([^#&?]{11})`),       // ?v=<id>
		regexp.MustCompile(`&v=([^#&?]{11})`),        // &v=<id>
		regexp.MustCompile(`embed/([^#&?]{11})`),     // embed/<id>
		regexp.MustCompile(`/v/([^#&?]{11})`),        // /v/<id>
	}

	// Fuzzy mode splits on URL delimiters and whitespace, then keeps any
	// token that already has the id shape.
	fuzzyDelimiters = regexp.MustCompile(`[/&?=#.\s]`)
	idShape         = regexp.MustCompile(`^[^#&?]{11}$`)
)

// FirstVideoID returns the first video id candidate discovered in text,
// in structural-pattern order, then fuzzy-token order when fuzzy is on.
// The second return value is false when nothing was found; absence of a
// match is a normal outcome, never an error.
func FirstVideoID(text string, fuzzy bool) (string, bool) {
	candidates := collectVideoIDs(text, fuzzy)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// AllVideoIDs returns the de-duplicated set of all candidates found in
// text. Callers that care about discovery order must use FirstVideoID.
//
// Fuzzy mode accepts any 11-character token between delimiters, so on
// free-form text it can produce false positives on coincidentally
// 11-character words. That tradeoff is inherited deliberately: a bare id
// pasted without URL context is still recoverable.
func AllVideoIDs(text string, fuzzy bool) []string {
	candidates := collectVideoIDs(text, fuzzy)
	if len(candidates) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, exists := seen[id]; !exists {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	return unique
}

func collectVideoIDs(text string, fuzzy bool) []string {
	if !basePattern.MatchString(text) {
		return nil
	}

	var results []string

	for _, pattern := range structuralPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			results = append(results, match[1])
		}
	}

	if fuzzy {
		for _, token := range fuzzyDelimiters.Split(text, -1) {
			if idShape.MatchString(token) {
				results = append(results, token)
			}
		}
	}

	return results
}
