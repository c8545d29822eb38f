// Package service implements the request ledger
//
// Every operation runs under one mutex and performs a whole-document
// read-modify-write against the DocStore, so writes are applied one at a time
// in arrival order and every reader sees a fully persisted state.
package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
	ptime "lasrouter/internal/platform/time"
	"lasrouter/internal/services/ledger/domain"
	"lasrouter/internal/services/ledger/repo"

	"github.com/google/uuid"
)

// Service implements domain.LedgerPort
type Service struct {
	store   repo.DocStore
	opt     Options
	mu      sync.Mutex
	now     func() time.Time
	newID   func() string
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New wraps store; store must be non nil
func New(store repo.DocStore, opt Options, m *metrics.Metrics) *Service {
	if store == nil {
		panic("ledger.Service requires a non nil DocStore")
	}
	if opt.DefaultLimit <= 0 {
		opt.DefaultLimit = 50
	}
	if opt.MaxLimit <= 0 {
		opt.MaxLimit = 500
	}
	return &Service{
		store:   store,
		opt:     opt,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		metrics: m,
		log:     logger.Named("ledger"),
	}
}

// Ping loads the ledger document, it backs the readiness checks of modules holding the ledger
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *Service) mutate(ctx context.Context, op string, fn func(*domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := repo.Mutate(ctx, s.store, fn)
	if err != nil && perr.IsCode(err, perr.ErrorCodeDB) {
		s.metrics.LedgerWriteFailed(op)
		logger.C(ctx).Error().Err(err).Str("op", op).Msg("ledger write failed")
	}
	return err
}

func (s *Service) load(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

// Create records a new request in processing state
func (s *Service) Create(ctx context.Context, origin domain.Origin, source, rawText string) (domain.Request, error) {
	if !origin.Valid() {
		return domain.Request{}, perr.WithField(perr.Validationf("unknown origin %q", origin), "origin")
	}
	req := domain.Request{
		ID:               s.newID(),
		Origin:           origin,
		SourceIdentifier: strings.TrimSpace(source),
		RawText:          rawText,
		Status:           domain.StatusProcessing,
		CreatedAt:        s.now(),
	}
	err := s.mutate(ctx, "create", func(doc *domain.Document) error {
		doc.Requests = append(doc.Requests, req)
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}
	return req.Clone(), nil
}

// Update applies p to request id and validates the result before saving
func (s *Service) Update(ctx context.Context, id string, p domain.Patch) (domain.Request, error) {
	var out domain.Request
	err := s.mutate(ctx, "update", func(doc *domain.Document) error {
		i := indexOf(doc.Requests, id)
		if i < 0 {
			return perr.NotFoundf("request %s not found", id)
		}
		cur := doc.Requests[i]
		if cur.Status.Terminal() {
			return perr.Conflictf("request %s is already %s", id, cur.Status)
		}
		next, err := apply(cur, p, s.now)
		if err != nil {
			return err
		}
		if err := validate(next); err != nil {
			return err
		}
		doc.Requests[i] = next
		out = next.Clone()
		return nil
	})
	return out, err
}

func apply(cur domain.Request, p domain.Patch, now func() time.Time) (domain.Request, error) {
	next := cur.Clone()
	if p.Status != nil {
		if !p.Status.Valid() {
			return next, perr.WithField(perr.Validationf("unknown status %q", *p.Status), "status")
		}
		if !cur.Status.CanTransition(*p.Status) {
			return next, perr.Conflictf("request %s cannot move from %s to %s", cur.ID, cur.Status, *p.Status)
		}
		next.Status = *p.Status
	}
	if p.Resolution != nil {
		r := *p.Resolution
		next.Resolution = &r
	}
	if p.OutputArtifactPath != nil {
		next.OutputArtifactPath = *p.OutputArtifactPath
	}
	if p.ErrorDetail != nil {
		next.ErrorDetail = *p.ErrorDetail
	}
	if p.DurationMs != nil {
		d := *p.DurationMs
		next.DurationMs = &d
	}
	if p.CompletedAt != nil {
		next.CompletedAt = ptime.Ptr(p.CompletedAt.UTC())
	} else if next.Status.Terminal() && next.CompletedAt == nil {
		next.CompletedAt = ptime.Ptr(now())
	}
	return next, nil
}

// validate enforces the per-status field invariants
func validate(r domain.Request) error {
	switch r.Status {
	case domain.StatusCompleted:
		if r.OutputArtifactPath == "" {
			return perr.WithField(perr.Validationf("completed request needs an output artifact"), "outputArtifactPath")
		}
		if r.DurationMs == nil {
			return perr.WithField(perr.Validationf("completed request needs a duration"), "durationMs")
		}
	case domain.StatusError:
		if strings.TrimSpace(r.ErrorDetail) == "" {
			return perr.WithField(perr.Validationf("error request needs an error detail"), "errorDetail")
		}
	}
	if r.Status.Terminal() != (r.CompletedAt != nil) {
		return perr.WithField(perr.Validationf("completedAt must be set exactly when the request is terminal"), "completedAt")
	}
	if r.DurationMs != nil && *r.DurationMs < 0 {
		return perr.WithField(perr.Validationf("duration must not be negative"), "durationMs")
	}
	return nil
}

// Get returns one request
func (s *Service) Get(ctx context.Context, id string) (domain.Request, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return domain.Request{}, err
	}
	i := indexOf(doc.Requests, id)
	if i < 0 {
		return domain.Request{}, perr.NotFoundf("request %s not found", id)
	}
	return doc.Requests[i].Clone(), nil
}

// List returns requests newest first; limit <= 0 means the default, values above the max are capped
func (s *Service) List(ctx context.Context, limit int) ([]domain.Request, error) {
	if limit <= 0 {
		limit = s.opt.DefaultLimit
	}
	limit = min(limit, s.opt.MaxLimit)
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rs := slices.Clone(doc.Requests)
	// ties keep reverse insertion order
	slices.Reverse(rs)
	slices.SortStableFunc(rs, func(a, b domain.Request) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(rs) > limit {
		rs = rs[:limit]
	}
	out := make([]domain.Request, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out, nil
}

// ComponentHealth returns every health record ordered by component id
func (s *Service) ComponentHealth(ctx context.Context) ([]domain.HealthRecord, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(doc.Health)
	slices.SortFunc(out, func(a, b domain.HealthRecord) int { return strings.Compare(a.ComponentID, b.ComponentID) })
	return out, nil
}

// SetComponentHealth upserts the record for id
func (s *Service) SetComponentHealth(
	ctx context.Context,
	id string,
	status domain.HealthStatus,
	metadata map[string]any,
) (domain.HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.HealthRecord{}, perr.WithField(perr.Validationf("component id is required"), "componentId")
	}
	if !status.Valid() {
		return domain.HealthRecord{}, perr.WithField(perr.Validationf("unknown health status %q", status), "status")
	}
	rec := domain.HealthRecord{ComponentID: id, Status: status, LastCheckedAt: s.now(), Metadata: metadata}
	err := s.mutate(ctx, "health", func(doc *domain.Document) error {
		for i := range doc.Health {
			if doc.Health[i].ComponentID == id {
				doc.Health[i] = rec
				return nil
			}
		}
		doc.Health = append(doc.Health, rec)
		return nil
	})
	if err != nil {
		return domain.HealthRecord{}, err
	}
	return rec, nil
}

// ModelConfig returns the stored provider selection or nil when none was saved
func (s *Service) ModelConfig(ctx context.Context) (*domain.ModelConfig, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.ModelConfig == nil {
		return nil, nil
	}
	mc := *doc.ModelConfig
	return &mc, nil
}

// SetModelConfig stores cfg
func (s *Service) SetModelConfig(ctx context.Context, cfg domain.ModelConfig) (domain.ModelConfig, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	switch cfg.Provider {
	case "none", "openai", "ollama", "anthropic", "gemini":
	default:
		return domain.ModelConfig{}, perr.WithField(perr.Validationf("unknown provider %q", cfg.Provider), "provider")
	}
	if cfg.Provider != "none" && cfg.Model == "" {
		return domain.ModelConfig{}, perr.WithField(perr.Validationf("model is required"), "model")
	}
	err := s.mutate(ctx, "settings", func(doc *domain.Document) error {
		if cfg.APIKey == domain.RedactedKey {
			cfg.APIKey = ""
			if doc.ModelConfig != nil {
				cfg.APIKey = doc.ModelConfig.APIKey
			}
		}
		mc := cfg
		doc.ModelConfig = &mc
		return nil
	})
	if err != nil {
		return domain.ModelConfig{}, err
	}
	return cfg, nil
}

func indexOf(rs []domain.Request, id string) int {
	return slices.IndexFunc(rs, func(r domain.Request) bool { return r.ID == id })
}
