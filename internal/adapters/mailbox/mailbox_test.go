package mailbox

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lasrouter/internal/platform/config"
	kit "lasrouter/internal/platform/testkit"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSpool(t *testing.T) *Spool {
	t.Helper()
	s := New(Options{Root: t.TempDir(), BatchSize: 10, Retain: time.Hour})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func drop(t *testing.T, s *Spool, name string, m Message, mod time.Time) {
	t.Helper()
	b, _ := json.Marshal(m)
	p := kit.WriteFile(t, s.InboxDir(), name, string(b))
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestFetchOrdersOldestFirstAndAssignsIDs(t *testing.T) {
	s := newSpool(t)
	base := time.Now().Add(-time.Minute)
	drop(t, s, "b.json", Message{From: "b@example.com", Subject: "second"}, base.Add(time.Second))
	drop(t, s, "a.json", Message{From: "a@example.com", Subject: "first"}, base)
	kit.WriteFile(t, s.InboxDir(), "notes.txt", "ignored")

	got, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []Message{
		{ID: "a", From: "a@example.com", Subject: "first"},
		{ID: "b", From: "b@example.com", Subject: "second"},
	}
	if d := cmp.Diff(want, got, cmpopts.IgnoreFields(Message{}, "ReceivedAt")); d != "" {
		t.Fatalf("fetch (-want +got):\n%s", d)
	}
	for _, m := range got {
		if m.ReceivedAt.IsZero() {
			t.Fatalf("receivedAt not defaulted for %s", m.ID)
		}
	}
}

func TestFetchRespectsBatchSize(t *testing.T) {
	s := New(Options{Root: t.TempDir(), BatchSize: 2})
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for i, n := range []string{"1.json", "2.json", "3.json"} {
		drop(t, s, n, Message{From: "x@example.com"}, now.Add(time.Duration(i)*time.Second))
	}
	got, err := s.Fetch(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("fetch = %d, %v", len(got), err)
	}
}

func TestFetchQuarantinesBadFiles(t *testing.T) {
	s := newSpool(t)
	kit.WriteFile(t, s.InboxDir(), "broken.json", "{not json")
	drop(t, s, "nosender.json", Message{Subject: "who"}, time.Now())

	got, err := s.Fetch(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("fetch = %v, %v", got, err)
	}
	for _, n := range []string{"broken.json", "nosender.json"} {
		if _, err := os.Stat(filepath.Join(s.opt.Root, dirFailed, n)); err != nil {
			t.Fatalf("%s not quarantined: %v", n, err)
		}
	}
}

func TestAckMovesToProcessed(t *testing.T) {
	s := newSpool(t)
	drop(t, s, "m1.json", Message{From: "a@example.com"}, time.Now())
	ctx := context.Background()

	if err := s.Ack(ctx, "m1"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.opt.Root, dirProcessed, "m1.json")); err != nil {
		t.Fatalf("not moved: %v", err)
	}
	got, _ := s.Fetch(ctx)
	if len(got) != 0 {
		t.Fatalf("acked message fetched again: %v", got)
	}
	if err := s.Ack(ctx, "m1"); err != nil {
		t.Fatalf("second ack should be a no-op, got %v", err)
	}
}

func TestSendWritesOutbox(t *testing.T) {
	s := newSpool(t)
	r := Reply{Recipient: "geo@example.com", Subject: "Re: gamma", BodyText: "done", AttachmentPath: "/tmp/x.png"}
	if err := s.Send(context.Background(), r); err != nil {
		t.Fatalf("send: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(s.opt.Root, dirOutbox))
	if len(entries) != 1 {
		t.Fatalf("outbox entries = %d", len(entries))
	}
	b, err := os.ReadFile(filepath.Join(s.opt.Root, dirOutbox, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	var got Reply
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := cmp.Diff(r, got, cmpopts.IgnoreFields(Reply{}, "CreatedAt")); d != "" {
		t.Fatalf("reply (-want +got):\n%s", d)
	}

	if err := s.Send(context.Background(), Reply{Subject: "x"}); err == nil {
		t.Fatal("reply without recipient should fail")
	}
}

func TestProbe(t *testing.T) {
	s := newSpool(t)
	ok, detail := s.Probe(context.Background())
	if !ok {
		t.Fatalf("probe failed: %v", detail)
	}

	bare := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	ok, detail = bare.Probe(context.Background())
	if ok || detail["error"] == nil {
		t.Fatalf("probe on missing spool = %v %v", ok, detail)
	}
}

func TestPruneRemovesOldFiles(t *testing.T) {
	s := newSpool(t)
	old := time.Now().Add(-2 * time.Hour)
	oldP := kit.WriteFile(t, filepath.Join(s.opt.Root, dirProcessed), "old.json", "{}")
	_ = os.Chtimes(oldP, old, old)
	kit.WriteFile(t, filepath.Join(s.opt.Root, dirProcessed), "fresh.json", "{}")

	n, err := s.Prune(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("prune = %d, %v", n, err)
	}
	if _, err := os.Stat(oldP); !os.IsNotExist(err) {
		t.Fatalf("old file still present")
	}
}

func TestWatchSignalsAndStops(t *testing.T) {
	s := newSpool(t)
	ctx, cancel := context.WithCancel(context.Background())
	wake, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	drop(t, s, "new.json", Message{From: "a@example.com"}, time.Now())
	select {
	case <-wake:
	case <-time.After(5 * time.Second):
		t.Fatal("no wake-up after inbox write")
	}

	cancel()
	kit.Eventually(t, 2*time.Second, func() bool {
		select {
		case _, ok := <-wake:
			return !ok
		default:
			return false
		}
	}, "wake channel should close after cancel")
}

func TestFromConfig(t *testing.T) {
	t.Setenv("T_MAILBOX_DIR", "/srv/mail")
	t.Setenv("T_MAILBOX_BATCH", "5")
	t.Setenv("T_MAILBOX_RETAIN", "1h")
	got := FromConfig(config.New().Prefix("T_"))
	want := Options{Root: "/srv/mail", BatchSize: 5, Retain: time.Hour}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("options (-want +got):\n%s", d)
	}
}
