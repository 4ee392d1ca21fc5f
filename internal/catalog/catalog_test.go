package catalog

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact match", "heisenberg", "heisenberg"},
		{"case insensitive", "HEISENBERG", "heisenberg"},
		{"mixed case", "Machiniste", "machiniste"},
		{"alias", "machinedrum", "machiniste"},
		{"alias upper case", "MACHINEDRUM", "machiniste"},
		{"alias synth", "synth", "heisenberg"},
		{"typo within threshold", "hisenberg", "heisenberg"},
		{"transposed typo", "bassilne", "bassline"},
		{"garbage beyond threshold", "xyz123", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"surrounding whitespace", "  bassline  ", "bassline"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.input); got != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestResolveFuzzyPrefersFirstCatalogEntry(t *testing.T) {
	// Every resolved value must come from the catalog itself, never from the
	// alias table.
	for _, input := range []string{"heisenburg", "machinist", "tonematrx"} {
		got := Resolve(input)
		if got == "" {
			t.Fatalf("Resolve(%q) returned no match", input)
		}
		if !IsValid(got) {
			t.Errorf("Resolve(%q) = %q, which is not a catalog entry", input, got)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"hisenberg", "heisenberg", 1},
		{"flaw", "lawn", 2},
	}
	for _, tc := range tests {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTypesReturnsCopy(t *testing.T) {
	first := Types()
	first[0] = "mutated"
	if Types()[0] == "mutated" {
		t.Fatal("Types must return a defensive copy")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("bassline") {
		t.Error("expected bassline to be valid")
	}
	if IsValid("machinedrum") {
		t.Error("aliases are not canonical types")
	}
	if IsValid("") {
		t.Error("empty string is not a valid type")
	}
}
