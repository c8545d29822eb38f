// Package catalog holds the fixed set of supported analyses
// A Catalog is built once at startup and never mutated; callers share the pointer
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"strings"

	perr "lasrouter/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Triple is one supported analysis: a script run against a LAS file, reported under a tool id
type Triple struct {
	ScriptID    string   `json:"script"`
	InputFileID string   `json:"lasFile"`
	ToolID      string   `json:"tool"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords"`
	Example     string   `json:"example"`
}

// Key is a compact label for logs and metrics
func (t Triple) Key() string { return t.ScriptID + "|" + t.InputFileID + "|" + t.ToolID }

// Equal compares the identifying members only
func (t Triple) Equal(o Triple) bool {
	return t.ScriptID == o.ScriptID && t.InputFileID == o.InputFileID && t.ToolID == o.ToolID
}

type rawAnalysis struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Script      string   `yaml:"script"`
	LASFile     string   `yaml:"las_file"`
	Tool        string   `yaml:"tool"`
	Keywords    []string `yaml:"keywords"`
	Example     string   `yaml:"example"`
}

type rawCatalog struct {
	Version  int           `yaml:"version"`
	Default  string        `yaml:"default"`
	Priority []string      `yaml:"priority"`
	Analyses []rawAnalysis `yaml:"analyses"`
}

// Catalog is the read-only set of triples plus lookup indexes
type Catalog struct {
	triples  []Triple
	byScript map[string]int
	byStem   map[string]int
	byFile   map[string]int
	byTool   map[string]int
	priority []int
	def      int
	vocab    []string
}

// Load decodes the embedded catalog
func Load() (*Catalog, error) { return Parse(embedded) }

// LoadFile decodes a catalog from disk, used to override the embedded definitions
func LoadFile(p string) (*Catalog, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read catalog %s", p)
	}
	return Parse(b)
}

// Parse decodes and validates catalog yaml
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "decode catalog")
	}
	if len(raw.Analyses) == 0 {
		return nil, perr.Configf("catalog defines no analyses")
	}

	c := &Catalog{
		byScript: map[string]int{},
		byStem:   map[string]int{},
		byFile:   map[string]int{},
		byTool:   map[string]int{},
	}
	for i, a := range raw.Analyses {
		t, err := buildTriple(a)
		if err != nil {
			return nil, perr.WithField(err, fmt.Sprintf("analyses[%d]", i))
		}
		sk, tk := fold(t.ScriptID), fold(t.ToolID)
		if _, dup := c.byScript[sk]; dup {
			return nil, perr.Configf("duplicate script %q", t.ScriptID)
		}
		if _, dup := c.byTool[tk]; dup {
			return nil, perr.Configf("duplicate tool %q", t.ToolID)
		}
		c.byScript[sk] = i
		c.byStem[stem(sk)] = i
		c.byTool[tk] = i
		fk := fold(t.InputFileID)
		if _, seen := c.byFile[fk]; !seen {
			c.byFile[fk] = i
		}
		if _, seen := c.byStem[stem(fk)]; !seen {
			c.byStem[stem(fk)] = i
		}
		c.triples = append(c.triples, t)
	}

	def, ok := c.byScript[fold(raw.Default)]
	if !ok {
		return nil, perr.Configf("default script %q is not in the catalog", raw.Default)
	}
	c.def = def

	seen := map[int]bool{}
	for _, s := range raw.Priority {
		i, ok := c.byScript[fold(s)]
		if !ok {
			return nil, perr.Configf("priority script %q is not in the catalog", s)
		}
		if seen[i] {
			return nil, perr.Configf("priority lists %q twice", s)
		}
		seen[i] = true
		c.priority = append(c.priority, i)
	}
	// analyses left out of priority are scanned last in catalog order
	for i := range c.triples {
		if !seen[i] {
			c.priority = append(c.priority, i)
		}
	}

	c.vocab = buildVocabulary(c.triples)
	return c, nil
}

func buildTriple(a rawAnalysis) (Triple, error) {
	t := Triple{
		ScriptID:    strings.TrimSpace(a.Script),
		InputFileID: strings.TrimSpace(a.LASFile),
		ToolID:      strings.TrimSpace(a.Tool),
		Name:        strings.TrimSpace(a.Name),
		Description: strings.TrimSpace(a.Description),
		Example:     strings.TrimSpace(a.Example),
	}
	switch {
	case t.ScriptID == "":
		return t, perr.Configf("analysis has no script")
	case t.InputFileID == "":
		return t, perr.Configf("analysis %s has no las_file", t.ScriptID)
	case t.ToolID == "":
		return t, perr.Configf("analysis %s has no tool", t.ScriptID)
	}
	for _, k := range a.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			t.Keywords = append(t.Keywords, k)
		}
	}
	if len(t.Keywords) == 0 {
		return t, perr.Configf("analysis %s has no keywords", t.ScriptID)
	}
	if t.Name == "" {
		t.Name = t.ToolID
	}
	if t.Example == "" {
		t.Example = "Run " + t.Name
	}
	return t, nil
}

// Triples returns every triple in catalog order
func (c *Catalog) Triples() []Triple {
	out := make([]Triple, len(c.triples))
	for i, t := range c.triples {
		out[i] = clone(t)
	}
	return out
}

// Len is the number of triples
func (c *Catalog) Len() int { return len(c.triples) }

// Default is the triple used when nothing in the text matches
func (c *Catalog) Default() Triple { return clone(c.triples[c.def]) }

// Priority returns triples in keyword scan order, most specific first
func (c *Catalog) Priority() []Triple {
	out := make([]Triple, len(c.priority))
	for i, idx := range c.priority {
		out[i] = clone(c.triples[idx])
	}
	return out
}

// ByScript finds the triple for a script id, with or without extension
func (c *Catalog) ByScript(id string) (Triple, bool) {
	k := fold(id)
	if i, ok := c.byScript[k]; ok {
		return clone(c.triples[i]), true
	}
	if i, ok := c.byScript[k+".py"]; ok {
		return clone(c.triples[i]), true
	}
	return Triple{}, false
}

// Match returns the catalog triple whose script, file and tool equal the given literals exactly
func (c *Catalog) Match(script, file, tool string) (Triple, bool) {
	i, ok := c.byScript[fold(script)]
	if !ok {
		return Triple{}, false
	}
	t := c.triples[i]
	if !strings.EqualFold(t.InputFileID, strings.TrimSpace(file)) || !strings.EqualFold(t.ToolID, strings.TrimSpace(tool)) {
		return Triple{}, false
	}
	return clone(t), true
}

// HasScript reports whether a script literal exists
func (c *Catalog) HasScript(id string) bool {
	_, ok := c.byScript[fold(id)]
	return ok
}

// HasFile reports whether a LAS file literal is bound to any triple
func (c *Catalog) HasFile(id string) bool {
	_, ok := c.byFile[fold(id)]
	return ok
}

// HasTool reports whether a tool id exists
func (c *Catalog) HasTool(id string) bool {
	_, ok := c.byTool[fold(id)]
	return ok
}

// FindByExactToken matches a script or file literal, with or without extension or directory
func (c *Catalog) FindByExactToken(token string) (Triple, bool) {
	k := fold(path.Base(strings.ReplaceAll(token, "\\", "/")))
	if k == "" || k == "." || k == "/" {
		return Triple{}, false
	}
	for _, idx := range []map[string]int{c.byScript, c.byFile, c.byStem} {
		if i, ok := idx[k]; ok {
			return clone(c.triples[i]), true
		}
	}
	return Triple{}, false
}

// FindInText returns the first literal script name in tokens, else the first literal file name
// tokens are expected in normalized form, see normalize.Shadows.Tokens
func (c *Catalog) FindInText(tokens []string) (Triple, string, bool) {
	scripts := func(k string) (int, bool) {
		if i, ok := c.byScript[k]; ok {
			return i, true
		}
		i, ok := c.byStem[k]
		return i, ok && fold(stem(c.triples[i].ScriptID)) == k
	}
	files := func(k string) (int, bool) {
		if i, ok := c.byFile[k]; ok {
			return i, true
		}
		i, ok := c.byStem[k]
		return i, ok
	}
	for _, lookup := range []func(string) (int, bool){scripts, files} {
		for _, tok := range tokens {
			k := fold(path.Base(strings.ReplaceAll(tok, "\\", "/")))
			if i, ok := lookup(k); ok {
				return clone(c.triples[i]), tok, true
			}
		}
	}
	return Triple{}, "", false
}

// KeywordsFor returns the keyword set of the catalog triple equal to t
func (c *Catalog) KeywordsFor(t Triple) []string {
	i, ok := c.byScript[fold(t.ScriptID)]
	if !ok || !c.triples[i].Equal(t) {
		return nil
	}
	return append([]string(nil), c.triples[i].Keywords...)
}

// Vocabulary is every domain term the catalog knows: keywords, their words, script stems and tool words
func (c *Catalog) Vocabulary() []string { return append([]string(nil), c.vocab...) }

// Examples returns up to n example phrases in catalog order, n <= 0 means all
func (c *Catalog) Examples(n int) []string {
	if n <= 0 || n > len(c.triples) {
		n = len(c.triples)
	}
	out := make([]string, 0, n)
	for _, t := range c.triples[:n] {
		out = append(out, t.Example)
	}
	return out
}

func buildVocabulary(ts []Triple) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if len(s) < 3 || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, t := range ts {
		for _, k := range t.Keywords {
			add(k)
			for _, w := range strings.Fields(k) {
				add(w)
			}
		}
		for _, w := range strings.Split(stem(t.ScriptID)+"_"+t.ToolID, "_") {
			add(w)
		}
	}
	return out
}

func clone(t Triple) Triple {
	t.Keywords = append([]string(nil), t.Keywords...)
	return t
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func stem(s string) string { return strings.TrimSuffix(s, path.Ext(s)) }
