// Package mailbox is a directory spool for inbound and outbound messages
//
// Layout under Root:
//
//	inbox/      one JSON Message per file, dropped by the mail gateway
//	processed/  inbox files move here once handled
//	failed/     files that could not be decoded
//	outbox/     one JSON Reply per file, picked up by the mail gateway
//
// Writers must create inbox files atomically (write elsewhere, then rename in).
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/logger"
	ptime "lasrouter/internal/platform/time"

	"github.com/google/uuid"
)

// Message is one inbound email
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Reply is one outbound email
type Reply struct {
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	BodyText       string    `json:"bodyText"`
	AttachmentPath string    `json:"attachmentPath,omitempty"`
	InReplyTo      string    `json:"inReplyTo,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Options locates the spool
type Options struct {
	Root      string
	BatchSize int
	Retain    time.Duration
}

// FromConfig reads MAILBOX_* under cfg
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("MAILBOX_")
	wd, _ := os.Getwd()
	return Options{
		Root:      c.MayPath("DIR", "data/mailbox", wd),
		BatchSize: c.MayInt("BATCH", 20),
		Retain:    c.MayDuration("RETAIN", 7*24*time.Hour),
	}
}

const (
	dirInbox     = "inbox"
	dirProcessed = "processed"
	dirFailed    = "failed"
	dirOutbox    = "outbox"
)

// Spool implements message fetch, acknowledgement and reply delivery
type Spool struct {
	opt Options
	now func() time.Time
	log *logger.Logger
}

// New returns a spool rooted at opt.Root; call Init before use
func New(opt Options) *Spool {
	if opt.BatchSize <= 0 {
		opt.BatchSize = 20
	}
	return &Spool{opt: opt, now: time.Now, log: logger.Named("mailbox")}
}

// Init creates the spool directories
func (s *Spool) Init() error {
	for _, d := range []string{dirInbox, dirProcessed, dirFailed, dirOutbox} {
		if err := os.MkdirAll(s.dir(d), 0o755); err != nil {
			return fmt.Errorf("mailbox: %w", err)
		}
	}
	return nil
}

// InboxDir is the directory watched for new messages
func (s *Spool) InboxDir() string { return s.dir(dirInbox) }

func (s *Spool) dir(name string) string { return filepath.Join(s.opt.Root, name) }

// Fetch returns up to BatchSize pending messages, oldest file first
// undecodable files are moved to failed/ and skipped
func (s *Spool) Fetch(ctx context.Context) ([]Message, error) {
	entries, err := os.ReadDir(s.dir(dirInbox))
	if err != nil {
		return nil, fmt.Errorf("mailbox: read inbox: %w", err)
	}
	type file struct {
		name string
		mod  time.Time
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{name: e.Name(), mod: fi.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mod.Equal(files[j].mod) {
			return files[i].name < files[j].name
		}
		return files[i].mod.Before(files[j].mod)
	})

	out := make([]Message, 0, min(len(files), s.opt.BatchSize))
	for _, f := range files {
		if len(out) >= s.opt.BatchSize || ctx.Err() != nil {
			break
		}
		m, err := s.read(f.name)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f.name).Msg("moving undecodable message to failed")
			_ = os.Rename(filepath.Join(s.dir(dirInbox), f.name), filepath.Join(s.dir(dirFailed), f.name))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Spool) read(name string) (Message, error) {
	var m Message
	b, err := os.ReadFile(filepath.Join(s.dir(dirInbox), name))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	if strings.TrimSpace(m.From) == "" {
		return m, errors.New("message has no sender")
	}
	// the file name is the identity used by Ack
	m.ID = strings.TrimSuffix(name, ".json")
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = s.now().UTC()
	}
	return m, nil
}

// Ack moves a handled message to processed/ so it is never fetched again
func (s *Spool) Ack(_ context.Context, id string) error {
	name := filepath.Base(id) + ".json"
	err := os.Rename(filepath.Join(s.dir(dirInbox), name), filepath.Join(s.dir(dirProcessed), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("mailbox: ack %s: %w", id, err)
	}
	return nil
}

// Send writes r to the outbox atomically
func (s *Spool) Send(_ context.Context, r Reply) error {
	if strings.TrimSpace(r.Recipient) == "" {
		return errors.New("mailbox: reply has no recipient")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("mailbox: encode reply: %w", err)
	}
	name := ptime.Stamp(r.CreatedAt) + "-" + uuid.NewString() + ".json"
	tmp, err := os.CreateTemp(s.dir(dirOutbox), ".reply-*")
	if err != nil {
		return fmt.Errorf("mailbox: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("mailbox: write reply: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("mailbox: write reply: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir(dirOutbox), name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("mailbox: publish reply: %w", err)
	}
	s.log.Info().Str("to", r.Recipient).Str("subject", r.Subject).Bool("attachment", r.AttachmentPath != "").
		Msg("reply queued")
	return nil
}

// Probe reports whether every spool directory exists and the outbox is writable
func (s *Spool) Probe(_ context.Context) (bool, map[string]any) {
	detail := map[string]any{"root": s.opt.Root}
	for _, d := range []string{dirInbox, dirProcessed, dirOutbox} {
		if fi, err := os.Stat(s.dir(d)); err != nil || !fi.IsDir() {
			detail["error"] = "missing spool directory " + d
			return false, detail
		}
	}
	f, err := os.CreateTemp(s.dir(dirOutbox), ".probe-*")
	if err != nil {
		detail["error"] = "outbox not writable: " + err.Error()
		return false, detail
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	if entries, err := os.ReadDir(s.dir(dirInbox)); err == nil {
		detail["pending"] = len(entries)
	}
	return true, detail
}

// Prune deletes processed and failed files older than Retain; zero disables
func (s *Spool) Prune(_ context.Context) (int, error) {
	if s.opt.Retain <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.opt.Retain)
	removed := 0
	for _, d := range []string{dirProcessed, dirFailed} {
		entries, err := os.ReadDir(s.dir(d))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		for _, e := range entries {
			fi, err := e.Info()
			if err != nil || !fi.Mode().IsRegular() || !fi.ModTime().Before(cutoff) {
				continue
			}
			if os.Remove(filepath.Join(s.dir(d), e.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
