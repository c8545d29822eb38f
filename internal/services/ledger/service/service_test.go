package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	perr "lasrouter/internal/platform/errors"
	"lasrouter/internal/platform/metrics"
	"lasrouter/internal/services/ledger/domain"
	"lasrouter/internal/services/ledger/repo"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newFileLedger(t *testing.T) (*Service, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ledger.json")
	return New(repo.NewFile(p), Options{}, nil), p
}

func complete(t *testing.T, s *Service, id string) domain.Request {
	t.Helper()
	r, err := s.Update(context.Background(), id, domain.Patch{
		Status:             ptr(domain.StatusCompleted),
		OutputArtifactPath: ptr("/out/" + id + ".png"),
		DurationMs:         ptr(int64(42)),
	})
	require.NoError(t, err)
	return r
}

func TestCreate(t *testing.T) {
	s, _ := newFileLedger(t)
	r, err := s.Create(context.Background(), domain.OriginDirect, " api ", "gamma ray plot")
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	require.Equal(t, domain.StatusProcessing, r.Status)
	require.Equal(t, "api", r.SourceIdentifier)
	require.Nil(t, r.CompletedAt)
	require.False(t, r.CreatedAt.IsZero())

	_, err = s.Create(context.Background(), domain.Origin("fax"), "", "x")
	require.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}

func TestTerminalStatesAreFinal(t *testing.T) {
	s, _ := newFileLedger(t)
	ctx := context.Background()

	done, _ := s.Create(ctx, domain.OriginDirect, "", "a")
	c := complete(t, s, done.ID)
	require.NotNil(t, c.CompletedAt)

	failed, _ := s.Create(ctx, domain.OriginInbound, "ops@example.com", "b")
	e, err := s.Update(ctx, failed.ID, domain.Patch{Status: ptr(domain.StatusError), ErrorDetail: ptr("boom")})
	require.NoError(t, err)
	require.NotNil(t, e.CompletedAt)

	patches := []domain.Patch{
		{Status: ptr(domain.StatusProcessing)},
		{Status: ptr(domain.StatusError), ErrorDetail: ptr("late")},
		{ErrorDetail: ptr("rewrite")},
		{Resolution: &domain.Resolution{Script: "x"}},
	}
	for _, id := range []string{done.ID, failed.ID} {
		for _, p := range patches {
			_, err := s.Update(ctx, id, p)
			require.True(t, perr.IsCode(err, perr.ErrorCodeConflict), "update %+v on terminal: %v", p, err)
		}
	}

	got, err := s.Get(ctx, done.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)
}

func TestUpdateInvariants(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		patch domain.Patch
		code  perr.ErrorCode
		field string
	}{
		{"completed without artifact", domain.Patch{Status: ptr(domain.StatusCompleted), DurationMs: ptr(int64(1))}, perr.ErrorCodeValidation, "outputArtifactPath"},
		{"completed without duration", domain.Patch{Status: ptr(domain.StatusCompleted), OutputArtifactPath: ptr("/x.png")}, perr.ErrorCodeValidation, "durationMs"},
		{"error without detail", domain.Patch{Status: ptr(domain.StatusError)}, perr.ErrorCodeValidation, "errorDetail"},
		{"completedAt while processing", domain.Patch{CompletedAt: ptr(time.Now())}, perr.ErrorCodeValidation, "completedAt"},
		{"back to received", domain.Patch{Status: ptr(domain.StatusReceived)}, perr.ErrorCodeConflict, ""},
		{"unknown status", domain.Patch{Status: ptr(domain.Status("paused"))}, perr.ErrorCodeValidation, "status"},
		{"negative duration", domain.Patch{DurationMs: ptr(int64(-5))}, perr.ErrorCodeValidation, "durationMs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newFileLedger(t)
			r, _ := s.Create(ctx, domain.OriginDirect, "", "x")
			_, err := s.Update(ctx, r.ID, tc.patch)
			require.Error(t, err)
			require.Equal(t, tc.code, perr.CodeOf(err))
			if tc.field != "" {
				require.Equal(t, tc.field, perr.WireFrom(err).Field)
			}
			got, _ := s.Get(ctx, r.ID)
			require.Equal(t, domain.StatusProcessing, got.Status, "rejected update must not persist")
			require.Nil(t, got.CompletedAt)
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, _ := newFileLedger(t)
	_, err := s.Update(context.Background(), "missing", domain.Patch{})
	require.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
	_, err = s.Get(context.Background(), "missing")
	require.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

func TestResolutionAndProgressUpdates(t *testing.T) {
	s, _ := newFileLedger(t)
	ctx := context.Background()
	r, _ := s.Create(ctx, domain.OriginDirect, "", "gamma")
	res := &domain.Resolution{Script: "gamma_ray_analyzer.py", LASFile: "gamma_ray_well.las", Tool: "gamma_analyzer", Confidence: 0.95, Source: "rule"}
	got, err := s.Update(ctx, r.ID, domain.Patch{Status: ptr(domain.StatusProcessing), Resolution: res})
	require.NoError(t, err)
	require.Equal(t, *res, *got.Resolution)

	res.Tool = "mutated"
	again, _ := s.Get(ctx, r.ID)
	require.Equal(t, "gamma_analyzer", again.Resolution.Tool)
}

func TestRoundTripPersistence(t *testing.T) {
	s, path := newFileLedger(t)
	ctx := context.Background()

	const n = 25
	var want []domain.Request
	for i := range n {
		origin := domain.OriginDirect
		if i%2 == 1 {
			origin = domain.OriginInbound
		}
		r, err := s.Create(ctx, origin, fmt.Sprintf("src-%d", i), fmt.Sprintf("request %d", i))
		require.NoError(t, err)
		switch i % 3 {
		case 0:
			r = complete(t, s, r.ID)
		case 1:
			r, err = s.Update(ctx, r.ID, domain.Patch{Status: ptr(domain.StatusError), ErrorDetail: ptr("file not found: x.las"), DurationMs: ptr(int64(3))})
			require.NoError(t, err)
		}
		want = append(want, r)
	}

	reloaded := New(repo.NewFile(path), Options{}, nil)
	got, err := reloaded.List(ctx, 500)
	require.NoError(t, err)
	require.Len(t, got, n)

	byID := map[string]domain.Request{}
	for _, r := range got {
		byID[r.ID] = r
	}
	for _, w := range want {
		if diff := cmp.Diff(w, byID[w.ID]); diff != "" {
			t.Fatalf("request %s (-want +got):\n%s", w.ID, diff)
		}
	}
}

func TestListOrderAndLimits(t *testing.T) {
	s, _ := newFileLedger(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()
	var ids []string
	for i := range 60 {
		r, err := s.Create(ctx, domain.OriginDirect, "", fmt.Sprint(i))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	def, _ := s.List(ctx, 0)
	require.Len(t, def, 50)
	require.Equal(t, ids[59], def[0].ID)
	require.Equal(t, ids[10], def[49].ID)

	two, _ := s.List(ctx, 2)
	require.Equal(t, []string{ids[59], ids[58]}, []string{two[0].ID, two[1].ID})

	s.opt.MaxLimit = 5
	capped, _ := s.List(ctx, 1000)
	require.Len(t, capped, 5)
}

func TestListSameInstantKeepsArrivalOrderReversed(t *testing.T) {
	s, _ := newFileLedger(t)
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	a, _ := s.Create(context.Background(), domain.OriginDirect, "", "a")
	b, _ := s.Create(context.Background(), domain.OriginDirect, "", "b")
	got, _ := s.List(context.Background(), 10)
	require.Equal(t, []string{b.ID, a.ID}, []string{got[0].ID, got[1].ID})
}

func TestConcurrentWritersAllPersist(t *testing.T) {
	s, path := newFileLedger(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Create(ctx, domain.OriginDirect, "", fmt.Sprint(i))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if _, err := s.Update(ctx, r.ID, domain.Patch{Status: ptr(domain.StatusError), ErrorDetail: ptr("x")}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := New(repo.NewFile(path), Options{}, nil).List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 20)
	for _, r := range got {
		require.Equal(t, domain.StatusError, r.Status)
	}
}

func TestComponentHealthUpsert(t *testing.T) {
	s, _ := newFileLedger(t)
	ctx := context.Background()
	_, err := s.SetComponentHealth(ctx, domain.ComponentMailTransport, domain.HealthOffline, map[string]any{"error": "no spool"})
	require.NoError(t, err)
	_, err = s.SetComponentHealth(ctx, domain.ComponentExecutionBackend, domain.HealthOnline, nil)
	require.NoError(t, err)
	_, err = s.SetComponentHealth(ctx, domain.ComponentMailTransport, domain.HealthOnline, nil)
	require.NoError(t, err)

	hs, err := s.ComponentHealth(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	require.Equal(t, domain.ComponentExecutionBackend, hs[0].ComponentID)
	require.Equal(t, domain.HealthOnline, hs[1].Status)

	_, err = s.SetComponentHealth(ctx, "x", domain.HealthStatus("sleepy"), nil)
	require.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	_, err = s.SetComponentHealth(ctx, " ", domain.HealthOnline, nil)
	require.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
}

func TestModelConfigSettings(t *testing.T) {
	s, _ := newFileLedger(t)
	ctx := context.Background()

	mc, err := s.ModelConfig(ctx)
	require.NoError(t, err)
	require.Nil(t, mc)

	_, err = s.SetModelConfig(ctx, domain.ModelConfig{Provider: "OpenAI", Model: "gpt-4o-mini", APIKey: "sk-1"})
	require.NoError(t, err)

	// writing back the redacted value keeps the key
	_, err = s.SetModelConfig(ctx, domain.ModelConfig{Provider: "openai", Model: "gpt-4o", APIKey: domain.RedactedKey})
	require.NoError(t, err)
	mc, _ = s.ModelConfig(ctx)
	require.Equal(t, domain.ModelConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-1"}, *mc)
	require.Equal(t, domain.RedactedKey, mc.Redacted().APIKey)

	_, err = s.SetModelConfig(ctx, domain.ModelConfig{Provider: "skynet", Model: "x"})
	require.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	_, err = s.SetModelConfig(ctx, domain.ModelConfig{Provider: "ollama"})
	require.True(t, perr.IsCode(err, perr.ErrorCodeValidation))
	_, err = s.SetModelConfig(ctx, domain.ModelConfig{Provider: "none"})
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	s, p := newFileLedger(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))
	err := s.Ping(context.Background())
	require.True(t, perr.IsCode(err, perr.ErrorCodeDB))
}

type failingStore struct{ repo.DocStore }

func (failingStore) Save(context.Context, domain.Document) error {
	return perr.DBf("disk full")
}

func TestSaveFailureSurfacesAndCounts(t *testing.T) {
	m := metrics.New()
	s := New(failingStore{repo.NewMemory()}, Options{}, m)
	_, err := s.Create(context.Background(), domain.OriginDirect, "", "x")
	require.True(t, perr.IsCode(err, perr.ErrorCodeDB))

	mfs, _ := m.Registry().Gather()
	var n float64
	for _, mf := range mfs {
		if mf.GetName() == "lasrouter_ledger_write_failures_total" {
			n = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(1), n)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	st, closeFn, err := OpenStore(ctx, Options{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "l.json")})
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &repo.File{}, st)

	st, _, err = OpenStore(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &repo.Memory{}, st)

	_, _, err = OpenStore(ctx, Options{Driver: DriverPG})
	require.True(t, perr.IsCode(err, perr.ErrorCodeConfig))
}
