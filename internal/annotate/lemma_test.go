package annotate

import "testing"

func TestLemma(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"studied", "study", true},
		{"cats", "cat", true},
		{"running", "runn", true},
		{"boxes", "box", true},
		{"walked", "walk", true},
		{"Cats", "cat", true},
		{"hall", "", false},
		{"is", "", false},  // result shorter than two letters
		{"ied", "", false}, // "y"
		{"s", "", false},
		{"thing", "th", true},
	}
	for _, tt := range tests {
		got, ok := Lemma(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Lemma(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
