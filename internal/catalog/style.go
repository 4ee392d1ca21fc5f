package catalog

import "strings"

// Recommendation pairs a device type with the rationale for suggesting it.
type Recommendation struct {
	EntityType string
	Reason     string
}

// styleRule matches a keyword inside a style description. Table order defines
// precedence when a description contains several keywords.
type styleRule struct {
	keyword    string
	entityType string
	reason     string
}

var styleRules = []styleRule{
	{"ambient", "heisenberg", "Heisenberg's dual-oscillator pads and long envelopes suit ambient textures."},
	{"pad", "heisenberg", "Heisenberg excels at slow-attack, sustained pad sounds."},
	{"acid", "bassline", "Bassline is a 303-style monosynth built for squelchy acid lines."},
	{"bass", "bassline", "Bassline delivers resonant, sequenced bass with accent and slide."},
	{"techno", "machiniste", "Machiniste's step-sequenced drum engine drives four-on-the-floor techno."},
	{"drum", "machiniste", "Machiniste is the go-to drum machine with per-step parameter locks."},
	{"beat", "beatbox", "Beatbox plays sampled kits, ideal for classic beat programming."},
	{"hip hop", "beatbox", "Beatbox's sampled kits carry boom-bap and hip hop grooves."},
	{"melod", "tonematrix", "Tonematrix sketches pentatonic melodies on a step grid instantly."},
	{"chiptune", "tonematrix", "Tonematrix's simple square voice has a chiptune character."},
	{"lead", "heisenberg", "Heisenberg's unison and filter drive make cutting lead sounds."},
	{"growl", "pulverisateur", "Pulverisateur's three-oscillator architecture handles aggressive growls."},
	{"dub", "delay", "A tempo-synced delay is the backbone of dub-style effects."},
	{"space", "reverb", "Reverb adds the spatial depth the description asks for."},
}

// defaultRecommendation is returned when no keyword matches.
var defaultRecommendation = Recommendation{
	EntityType: "heisenberg",
	Reason:     "Heisenberg is the most versatile synthesizer in the catalog and a safe starting point for most styles.",
}

// Recommend suggests a device type for a free-text style, genre, or artist
// description. The first keyword contained in the lower-cased description
// wins; an unmatched description falls back to a general-purpose default.
func Recommend(description string) Recommendation {
	lowered := strings.ToLower(description)
	for _, rule := range styleRules {
		if strings.Contains(lowered, rule.keyword) {
			return Recommendation{EntityType: rule.entityType, Reason: rule.reason}
		}
	}
	return defaultRecommendation
}
