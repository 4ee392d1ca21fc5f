package catalog

import "testing"

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"ambient pad", "warm ambient pad", "heisenberg"},
		{"acid", "acid bassline", "bassline"},
		{"techno", "driving Detroit techno", "machiniste"},
		{"hip hop", "laid back hip hop beat", "beatbox"},
		{"melody", "simple melodic hook", "tonematrix"},
		{"dub", "dub echoes", "delay"},
		{"no match falls back", "polka accordion waltz", "heisenberg"},
		{"empty falls back", "", "heisenberg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := Recommend(tc.description)
			if rec.EntityType != tc.want {
				t.Errorf("Recommend(%q).EntityType = %q, want %q", tc.description, rec.EntityType, tc.want)
			}
			if rec.Reason == "" {
				t.Errorf("Recommend(%q) returned an empty reason", tc.description)
			}
		})
	}
}

func TestRecommendAlwaysReturnsCatalogType(t *testing.T) {
	for _, rule := range styleRules {
		if !IsValid(rule.entityType) {
			t.Errorf("style rule %q recommends %q, which is not in the catalog", rule.keyword, rule.entityType)
		}
	}
	if !IsValid(defaultRecommendation.EntityType) {
		t.Errorf("default recommendation %q is not in the catalog", defaultRecommendation.EntityType)
	}
}
