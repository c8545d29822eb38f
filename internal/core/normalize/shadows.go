package normalize

import (
	"strings"
	"unicode"
)

// Shadows bundles the projections of one normalized text that matchers need
type Shadows struct {
	// Base is the Normalize output
	Base string
	// Words is Base with every non letter or digit run replaced by one space,
	// padded with a space on both ends so " gamma ray " matches whole words only
	Words string
	// Tokens are whitespace separated tokens with edge punctuation trimmed,
	// inner '_', '.', '-' and path separators are kept so file names survive
	Tokens []string
	// Letters counts letter runes
	Letters int
}

// edgePunct is trimmed from both ends of a token
const edgePunct = ".,;:!?()[]{}<>\"'`*"

// Build normalizes raw and derives all projections
func Build(raw string) Shadows {
	base := Text(raw)
	sh := Shadows{Base: base, Words: words(base)}
	for _, f := range strings.Fields(base) {
		if t := strings.Trim(f, edgePunct); t != "" {
			sh.Tokens = append(sh.Tokens, t)
		}
	}
	for _, r := range base {
		if unicode.IsLetter(r) {
			sh.Letters++
		}
	}
	return sh
}

// HasPhrase reports whether phrase occurs in the text as whole words
// phrase is normalized the same way so "Gamma-Ray" matches "gamma ray"
func (s Shadows) HasPhrase(phrase string) bool {
	p := words(Text(phrase))
	if strings.TrimSpace(p) == "" {
		return false
	}
	return strings.Contains(s.Words, p)
}

// WordList returns the word projection as a slice
func (s Shadows) WordList() []string { return strings.Fields(s.Words) }

func words(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	gap := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			gap = false
			continue
		}
		if !gap {
			b.WriteByte(' ')
			gap = true
		}
	}
	if !gap {
		b.WriteByte(' ')
	}
	return b.String()
}
