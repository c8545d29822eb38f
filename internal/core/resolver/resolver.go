package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lasrouter/internal/adapters/llm"
	"lasrouter/internal/core/catalog"
	"lasrouter/internal/core/normalize"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
)

// Resolver is safe for concurrent use; it holds only read-only state
type Resolver struct {
	cat     *catalog.Catalog
	gen     Generator
	opt     Options
	system  string
	metrics *metrics.Metrics
}

// New builds a Resolver; gen may be nil, in which case the model tier is skipped
func New(cat *catalog.Catalog, gen Generator, opt Options, m *metrics.Metrics) *Resolver {
	if cat == nil {
		panic("resolver: nil catalog")
	}
	if opt.ModelTimeout <= 0 {
		opt.ModelTimeout = DefaultOptions().ModelTimeout
	}
	return &Resolver{cat: cat, gen: gen, opt: opt, system: BuildPrompt(cat), metrics: m}
}

// Catalog returns the catalog the resolver matches against
func (r *Resolver) Catalog() *catalog.Catalog { return r.cat }

// Resolve runs the tiers in order and never fails
func (r *Resolver) Resolve(ctx context.Context, text string, mc *ModelConfig) Resolution {
	sh := normalize.Build(text)
	res := r.resolve(ctx, text, sh, mc)
	r.metrics.Resolved(string(res.Source))
	logger.C(ctx).Debug().
		Str("source", string(res.Source)).
		Str("tool", res.Triple.ToolID).
		Float64("confidence", res.Confidence).
		Msg("resolved")
	return res
}

func (r *Resolver) resolve(ctx context.Context, raw string, sh normalize.Shadows, mc *ModelConfig) Resolution {
	if res, ok := r.literal(sh); ok {
		return res
	}
	if mc.Enabled() && r.gen != nil {
		res, err := r.model(ctx, raw, *mc)
		if err == nil {
			return res
		}
		reason := failureReason(err)
		r.metrics.ModelFailed(reason)
		logger.C(ctx).Warn().Err(err).Str("provider", mc.Provider).Str("reason", reason).
			Msg("model tier failed; using keyword fallback")
	}
	return r.fallback(sh)
}

// literal binds the triple whose script or file name appears in the text
func (r *Resolver) literal(sh normalize.Shadows) (Resolution, bool) {
	t, lit, ok := r.cat.FindInText(sh.Tokens)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Triple:     &t,
		Confidence: r.opt.RuleConfidence,
		Reasoning:  fmt.Sprintf("request names %q directly", lit),
		Source:     SourceRule,
	}, true
}

// fallback scans keyword sets in priority order, first phrase hit wins
func (r *Resolver) fallback(sh normalize.Shadows) Resolution {
	for _, t := range r.cat.Priority() {
		for _, kw := range t.Keywords {
			if sh.HasPhrase(kw) {
				return Resolution{
					Triple:     &t,
					Confidence: r.opt.FallbackConfidence,
					Reasoning:  fmt.Sprintf("keyword %q matched %s", kw, t.Name),
					Source:     SourceFallback,
				}
			}
		}
	}
	d := r.cat.Default()
	return Resolution{
		Triple:     &d,
		Confidence: r.opt.DefaultConfidence,
		Reasoning:  "no catalog keyword matched; using the default analysis",
		Source:     SourceFallback,
	}
}

// modelReply is the untrusted shape the model is asked for
type modelReply struct {
	Script     *string  `json:"script"`
	LASFile    *string  `json:"lasFile"`
	InputFile  *string  `json:"inputFile"`
	Tool       *string  `json:"tool"`
	Confidence *float64 `json:"confidence"`
	Reasoning  *string  `json:"reasoning"`
}

var (
	errNoJSON        = errors.New("model reply holds no json object")
	errMissingFields = errors.New("model reply is missing required fields")
	errOutOfCatalog  = errors.New("model chose a triple outside the catalog")
	errDecode        = errors.New("decode model reply")
)

func (r *Resolver) model(ctx context.Context, raw string, mc ModelConfig) (Resolution, error) {
	timeout := mc.Timeout
	if timeout <= 0 {
		timeout = r.opt.ModelTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.gen.Generate(cctx, mc, r.system, UserPrompt(raw))
	if err != nil {
		if cctx.Err() != nil {
			return Resolution{}, fmt.Errorf("model call: %w", cctx.Err())
		}
		return Resolution{}, fmt.Errorf("model call: %w", err)
	}
	return r.parseReply(out)
}

// parseReply validates every identifier against the catalog before trusting the reply
func (r *Resolver) parseReply(out string) (Resolution, error) {
	js := llm.ExtractJSON(out)
	if js == "" {
		return Resolution{}, errNoJSON
	}
	var rep modelReply
	dec := json.NewDecoder(bytes.NewReader([]byte(js)))
	if err := dec.Decode(&rep); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", errDecode, err)
	}
	file := rep.LASFile
	if file == nil {
		file = rep.InputFile
	}
	if rep.Script == nil || file == nil || rep.Tool == nil || rep.Confidence == nil || rep.Reasoning == nil {
		return Resolution{}, errMissingFields
	}
	t, ok := r.cat.Match(*rep.Script, *file, *rep.Tool)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s | %s | %s", errOutOfCatalog, *rep.Script, *file, *rep.Tool)
	}
	reason := strings.TrimSpace(*rep.Reasoning)
	if reason == "" {
		reason = "model selected " + t.Name
	}
	return Resolution{
		Triple:     &t,
		Confidence: clamp(*rep.Confidence),
		Reasoning:  reason,
		Source:     SourceModel,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errNoJSON):
		return "no_json"
	case errors.Is(err, errMissingFields):
		return "missing_fields"
	case errors.Is(err, errOutOfCatalog):
		return "out_of_catalog"
	case errors.Is(err, errDecode):
		return "decode"
	default:
		return "call_failed"
	}
}
