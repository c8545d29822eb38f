package clarify

import (
	"testing"

	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/resolver"
	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/metrics"

	"github.com/google/go-cmp/cmp"
)

func newGate(t *testing.T, m *metrics.Metrics) (*Gate, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return New(cat, DefaultOptions(), m), cat
}

func resolution(cat *catalog.Catalog, conf float64) resolver.Resolution {
	d := cat.Default()
	return resolver.Resolution{Triple: &d, Confidence: conf, Source: resolver.SourceFallback}
}

func TestChitChatShortCircuit(t *testing.T) {
	g, cat := newGate(t, nil)
	for _, text := range []string{"hi", "thanks", "Thanks!", "  HELLO  ", "thank you.", "Good morning", "ok", "", "   ", "a", "??", "1234"} {
		for _, conf := range []float64{0, 0.7, 1} {
			res := g.ShouldClarify(text, resolution(cat, conf))
			if !res.NeedsClarification || res.Stage != StageChitChat {
				t.Fatalf("ShouldClarify(%q, %v) = %+v, want chitchat", text, conf, res)
			}
			if res.Suggestions == nil || len(res.Suggestions) != 0 {
				t.Fatalf("chitchat suggestions must be empty, got %#v", res.Suggestions)
			}
			if res.Confidence != 0 {
				t.Fatalf("chitchat confidence = %v", res.Confidence)
			}
		}
	}
}

func TestPrecheckHi(t *testing.T) {
	m := metrics.New()
	g, _ := newGate(t, m)
	res, stop := g.Precheck("hi")
	if !stop || !res.NeedsClarification || len(res.Suggestions) != 0 {
		t.Fatalf("Precheck(hi) = %+v, %v", res, stop)
	}
	if res.Message == "" {
		t.Fatal("chitchat needs a greeting message")
	}
	if got := counter(t, m, "chitchat"); got != 1 {
		t.Fatalf("chitchat counted %v times", got)
	}
}

func TestPrecheckPassesDomainText(t *testing.T) {
	g, _ := newGate(t, nil)
	for _, text := range []string{
		"please run gamma_ray_analyzer.py",
		"analyze resistivity for formation evaluation",
		"gamma ray plot",
		"what's the poros in this well",
		"LITHOLOGY?",
		"run sample_well_01.las",
		"please process sample_well_01",
		"process data/las/porosity_well.las",
	} {
		if res, stop := g.Precheck(text); stop {
			t.Fatalf("Precheck(%q) stopped at %s", text, res.Stage)
		}
	}
}

func TestFileLiteralIsDomainTerm(t *testing.T) {
	g, cat := newGate(t, nil)
	res := g.ShouldClarify("run sample_well_01.las", resolution(cat, 0.95))
	if res.NeedsClarification {
		t.Fatalf("file literal clarified at %s", res.Stage)
	}
}

func TestNoDomainTerms(t *testing.T) {
	g, cat := newGate(t, nil)
	res := g.ShouldClarify("what is the weather tomorrow", resolution(cat, 0.9))
	if !res.NeedsClarification || res.Stage != StageNoDomainTerms {
		t.Fatalf("got %+v", res)
	}
	if res.Confidence != 0.3 {
		t.Fatalf("confidence = %v, want capped at 0.3", res.Confidence)
	}
	if diff := cmp.Diff(cat.Examples(0), res.Suggestions); diff != "" {
		t.Fatalf("suggestions (-want +got):\n%s", diff)
	}

	res = g.ShouldClarify("what is the weather tomorrow", resolution(cat, 0.05))
	if res.Confidence != 0.05 {
		t.Fatalf("confidence = %v, want the lower resolution value", res.Confidence)
	}

	pre, stop := g.Precheck("what is the weather tomorrow")
	if !stop || pre.Confidence != 0 || pre.Stage != StageNoDomainTerms {
		t.Fatalf("Precheck = %+v, %v", pre, stop)
	}
}

func TestLowConfidence(t *testing.T) {
	m := metrics.New()
	g, cat := newGate(t, m)
	res := g.ShouldClarify("show me the log", resolution(cat, 0.05))
	if !res.NeedsClarification || res.Stage != StageLowConfidence {
		t.Fatalf("got %+v", res)
	}
	if len(res.Suggestions) == 0 || len(res.Suggestions) > 5 {
		t.Fatalf("suggestions = %v", res.Suggestions)
	}
	if diff := cmp.Diff(cat.Examples(5), res.Suggestions); diff != "" {
		t.Fatalf("suggestions (-want +got):\n%s", diff)
	}
	if got := counter(t, m, "low_confidence"); got != 1 {
		t.Fatalf("low_confidence counted %v times", got)
	}
}

func TestProceed(t *testing.T) {
	g, cat := newGate(t, nil)
	for _, conf := range []float64{0.6, 0.7, 0.95} {
		res := g.ShouldClarify("analyze resistivity for formation evaluation", resolution(cat, conf))
		if res.NeedsClarification || res.Stage != StageNone || res.Confidence != conf {
			t.Fatalf("conf %v: got %+v", conf, res)
		}
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("T_CLARIFY_THRESHOLD", "0.8")
	t.Setenv("T_CLARIFY_MAX_SUGGESTIONS", "0")
	o := FromConfig(config.New().Prefix("T_"))
	want := Options{Threshold: 0.8, MinTokens: 1, MinChars: 3, MaxSuggestions: 5}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Fatalf("FromConfig (-want +got):\n%s", diff)
	}

	t.Setenv("T_CLARIFY_THRESHOLD", "3")
	if got := FromConfig(config.New().Prefix("T_")).Threshold; got != 0.6 {
		t.Fatalf("out of range threshold = %v", got)
	}
}

func TestNewPanicsOnNilCatalog(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(nil, DefaultOptions(), nil)
}

func counter(t *testing.T, m *metrics.Metrics, stage string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "lasrouter_clarifications_total" {
			continue
		}
		for _, mt := range mf.GetMetric() {
			for _, lp := range mt.GetLabel() {
				if lp.GetName() == "stage" && lp.GetValue() == stage {
					return mt.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
