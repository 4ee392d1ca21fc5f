package catalog

import "strings"

// maxEditDistance bounds fuzzy type resolution. Three edits tolerates the
// typos agents actually produce for 8-12 character device names without
// accepting arbitrary garbage.
const maxEditDistance = 3

// deviceTypes is the ordered catalog of valid device types. Order is part of
// the contract: it drives error messages and fuzzy tie-breaking (first
// minimum wins).
var deviceTypes = []string{
	"heisenberg",
	"pulverisateur",
	"bassline",
	"machiniste",
	"tonematrix",
	"beatbox",
	"delay",
	"reverb",
	"compressor",
}

// aliases maps common synonyms to canonical device types. Keys are
// lower-case.
var aliases = map[string]string{
	"machinedrum": "machiniste",
	"drummachine": "machiniste",
	"tb-303":      "bassline",
	"303":         "bassline",
	"synth":       "heisenberg",
	"synthesizer": "heisenberg",
	"drums":       "beatbox",
	"matrix":      "tonematrix",
	"echo":        "delay",
}

// Types returns the ordered catalog of valid device types.
func Types() []string {
	out := make([]string, len(deviceTypes))
	copy(out, deviceTypes)
	return out
}

// IsValid reports whether value is a canonical device type.
func IsValid(value string) bool {
	for _, t := range deviceTypes {
		if t == value {
			return true
		}
	}
	return false
}

// Resolve maps a loose device-type name to a canonical catalog entry.
// Resolution order: exact match, alias lookup, case-insensitive match, then
// fuzzy edit-distance match. It returns "" when nothing resolves.
func Resolve(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	for _, t := range deviceTypes {
		if t == trimmed {
			return t
		}
	}

	lowered := strings.ToLower(trimmed)
	if canonical, ok := aliases[lowered]; ok {
		return canonical
	}

	for _, t := range deviceTypes {
		if strings.EqualFold(t, trimmed) {
			return t
		}
	}

	best := ""
	bestDistance := maxEditDistance + 1
	for _, t := range deviceTypes {
		if d := editDistance(lowered, t); d < bestDistance {
			best = t
			bestDistance = d
		}
	}
	if bestDistance > maxEditDistance {
		return ""
	}
	return best
}

// editDistance computes the Levenshtein distance between a and b with unit
// costs for insertions, deletions, and substitutions.
func editDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
