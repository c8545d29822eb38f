// Package clarify decides whether a request should be answered with a
// clarification instead of being executed
//
// Stages run in order and the first one that fires wins:
//
//	chitchat         greetings, thanks and inputs too short to carry intent
//	no_domain_terms  nothing in the text resembles a catalog term
//	low_confidence   the resolution is below the threshold
//
// The first two stages are lexical and available through Precheck so callers can
// skip resolution entirely for inputs that will never proceed.
package clarify

import (
	"strings"
	"unicode"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/normalize"
	"lasrouter/internal/core/resolver"
	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/metrics"
)

// Stage names the gate check that produced a result
type Stage string

const (
	StageNone          Stage = ""
	StageChitChat      Stage = "chitchat"
	StageNoDomainTerms Stage = "no_domain_terms"
	StageLowConfidence Stage = "low_confidence"
)

// Result is the gate decision for one input
type Result struct {
	NeedsClarification bool     `json:"needsClarification"`
	Confidence         float64  `json:"confidence"`
	Suggestions        []string `json:"suggestions"`
	Message            string   `json:"message"`
	Stage              Stage    `json:"stage,omitempty"`
}

// Options tunes the gate
type Options struct {
	Threshold      float64
	MinTokens      int
	MinChars       int
	MaxSuggestions int
}

// DefaultOptions pairs with resolver.DefaultOptions: a keyword hit passes, the default triple does not
func DefaultOptions() Options {
	return Options{Threshold: 0.6, MinTokens: 1, MinChars: 3, MaxSuggestions: 5}
}

// FromConfig reads CLARIFY_* overrides
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CLARIFY_")
	d := DefaultOptions()
	o := Options{
		Threshold:      c.MayFloat64("THRESHOLD", d.Threshold),
		MinTokens:      c.MayInt("MIN_TOKENS", d.MinTokens),
		MinChars:       c.MayInt("MIN_CHARS", d.MinChars),
		MaxSuggestions: c.MayInt("MAX_SUGGESTIONS", d.MaxSuggestions),
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		o.Threshold = d.Threshold
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = d.MaxSuggestions
	}
	return o
}

const (
	msgChitChat = "Hello! I run well-log analyses on LAS data. Tell me what you would like to analyze, " +
		"for example a gamma ray, porosity or resistivity analysis."
	msgNoDomain = "I could not find anything about well-log analysis in your request. " +
		"Try one of the suggestions below."
	msgLowConfidence = "I am not sure which analysis you want. Could you be more specific? " +
		"Here are some requests I understand."
)

// chitChat holds exact phrases, compared after folding and trimming trailing punctuation
var chitChat = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "hiya": {}, "yo": {}, "howdy": {},
	"thanks": {}, "thank you": {}, "thx": {}, "ty": {}, "cheers": {},
	"ok": {}, "okay": {}, "k": {}, "cool": {}, "great": {}, "nice": {},
	"bye": {}, "goodbye": {}, "see you": {},
	"good morning": {}, "good afternoon": {}, "good evening": {}, "good night": {},
	"how are you": {}, "what's up": {}, "whats up": {}, "sup": {},
	"yes": {}, "no": {}, "test": {}, "help": {},
}

// Gate is immutable after New and safe for concurrent use
type Gate struct {
	cat     *catalog.Catalog
	opt     Options
	vocab   []string
	metrics *metrics.Metrics
}

// New builds a Gate over the catalog vocabulary
func New(cat *catalog.Catalog, opt Options, m *metrics.Metrics) *Gate {
	if cat == nil {
		panic("clarify: nil catalog")
	}
	if opt.MaxSuggestions <= 0 {
		opt.MaxSuggestions = DefaultOptions().MaxSuggestions
	}
	g := &Gate{cat: cat, opt: opt, metrics: m}
	for _, v := range cat.Vocabulary() {
		if t := normalize.Text(v); t != "" {
			g.vocab = append(g.vocab, t)
		}
	}
	return g
}

// Options returns the effective options
func (g *Gate) Options() Options { return g.opt }

// Precheck runs the lexical stages only; ok is true when the input must be clarified
func (g *Gate) Precheck(text string) (Result, bool) {
	sh := normalize.Build(text)
	if g.isChitChat(sh) {
		return g.chitChat(), true
	}
	if !g.hasDomainTerm(sh) {
		return g.noDomain(0), true
	}
	return Result{}, false
}

// ShouldClarify runs every stage against text and the resolution produced for it
func (g *Gate) ShouldClarify(text string, res resolver.Resolution) Result {
	sh := normalize.Build(text)
	switch {
	case g.isChitChat(sh):
		return g.chitChat()
	case !g.hasDomainTerm(sh):
		return g.noDomain(min(res.Confidence, 0.3))
	case res.Confidence < g.opt.Threshold:
		g.metrics.Clarified(string(StageLowConfidence))
		return Result{
			NeedsClarification: true,
			Confidence:         res.Confidence,
			Suggestions:        g.cat.Examples(g.opt.MaxSuggestions),
			Message:            msgLowConfidence,
			Stage:              StageLowConfidence,
		}
	}
	msg := "Proceeding"
	if res.Triple != nil {
		msg = "Proceeding with " + res.Triple.Name
	}
	return Result{Confidence: res.Confidence, Suggestions: []string{}, Message: msg}
}

func (g *Gate) chitChat() Result {
	g.metrics.Clarified(string(StageChitChat))
	return Result{
		NeedsClarification: true,
		Suggestions:        []string{},
		Message:            msgChitChat,
		Stage:              StageChitChat,
	}
}

func (g *Gate) noDomain(conf float64) Result {
	g.metrics.Clarified(string(StageNoDomainTerms))
	return Result{
		NeedsClarification: true,
		Confidence:         conf,
		Suggestions:        g.cat.Examples(0),
		Message:            msgNoDomain,
		Stage:              StageNoDomainTerms,
	}
}

func (g *Gate) isChitChat(sh normalize.Shadows) bool {
	phrase := strings.TrimRightFunc(strings.TrimSpace(sh.Base), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if _, ok := chitChat[phrase]; ok {
		return true
	}
	return len(sh.WordList()) < g.opt.MinTokens || sh.Letters < g.opt.MinChars
}

// hasDomainTerm matches loosely: substrings count, and so does a 4+ letter token
// that starts a term ("poros" for porosity). A script or file literal always counts
func (g *Gate) hasDomainTerm(sh normalize.Shadows) bool {
	if _, _, ok := g.cat.FindInText(sh.Tokens); ok {
		return true
	}
	words := sh.WordList()
	for _, term := range g.vocab {
		if strings.Contains(sh.Base, term) {
			return true
		}
		for _, w := range words {
			if letterCount(w) >= 4 && strings.HasPrefix(term, w) {
				return true
			}
		}
	}
	return false
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
