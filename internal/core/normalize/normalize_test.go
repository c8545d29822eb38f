package normalize

import (
	"reflect"
	"testing"
)

func TestNormalize_Table(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity ascii", "plot depth", "plot depth"},
		{"utf8 repair drops invalid bytes", string([]byte{0xff, 'l', 'a', 's', 0x80, ' ', 'f'}), "las f"},
		{"case fold", "Gamma RAY", "gamma ray"},
		{"remove zero widths", "gam\u200bma", "gamma"},
		{"remove combining marks", "poro\u0301sity", "porosity"},
		{"precomposed accent", "por\u00f3sity", "porosity"},
		{"width fold fullwidth", "\uff2c\uff21\uff33 file", "las file"},
		{"compatibility ligature", "\ufb01le", "file"},
		{"digits survive", "Sample_Well_01.LAS", "sample_well_01.las"},
		{"collapse whitespace", "a\t\tb   c", "a b c"},
		{"line breaks kept once", "a\r\n\r\nb", "a\nb"},
		{"trim edges", "  \n hi \n ", "hi"},
		{"controls dropped", "re\x00sist\x7fivity", "resistivity"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.in); got != tc.out {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestBuild_Projections(t *testing.T) {
	sh := Build("Please run scripts/gamma_ray_analyzer.py, thanks!")
	if sh.Words != " please run scripts gamma ray analyzer py thanks " {
		t.Fatalf("Words = %q", sh.Words)
	}
	want := []string{"please", "run", "scripts/gamma_ray_analyzer.py", "thanks"}
	if !reflect.DeepEqual(sh.Tokens, want) {
		t.Fatalf("Tokens = %q", sh.Tokens)
	}
	if sh.Letters != 40 {
		t.Fatalf("Letters = %d", sh.Letters)
	}
}

func TestHasPhrase(t *testing.T) {
	sh := Build("Show me the Gamma-Ray log for the well")
	cases := map[string]bool{
		"gamma ray": true,
		"Gamma Ray": true,
		"ray log":   true,
		"gam":       false,
		"amma":      false,
		"":          false,
		"porosity":  false,
	}
	for phrase, want := range cases {
		if got := sh.HasPhrase(phrase); got != want {
			t.Errorf("HasPhrase(%q) = %v, want %v", phrase, got, want)
		}
	}
}

func TestStripQuoted(t *testing.T) {
	body := "Can you plot porosity?\n\nOn Mon, Jan 5, Ops wrote:\n> run resistivity\n> thanks\n-- \nJane\nGeology"
	if got := StripQuoted(body); got != "Can you plot porosity?" {
		t.Fatalf("StripQuoted = %q", got)
	}
	if got := StripQuoted("  plain body  "); got != "plain body" {
		t.Fatalf("plain = %q", got)
	}
}

func TestDetectZones(t *testing.T) {
	z := DetectZones("hello\n> quoted\nmore")
	if len(z) != 1 || z[0].Type != ZoneQuote || z[0].Start != 6 || z[0].End != 14 {
		t.Fatalf("zones = %+v", z)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("a\x01b\tc\u0085d"); got != "ab\tcd" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := Sanitize("las\xffwell\x7f\r\n"); got != "laswell\r\n" {
		t.Fatalf("Sanitize invalid = %q", got)
	}
	s := "clean text"
	if got := Sanitize(s); got != s {
		t.Fatalf("fast path changed text")
	}
}
