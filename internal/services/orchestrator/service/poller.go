package service

import (
	"context"
	"errors"
	"time"

	"lasrouter/internal/adapters/mailbox"
	"lasrouter/internal/services/orchestrator/domain"

	"golang.org/x/sync/errgroup"
)

// Run polls the inbox until ctx ends, on a ticker and whenever the inbox signals new mail
// Background executions are drained before Run returns
func (s *Service) Run(ctx context.Context) error {
	if s.d.Inbox == nil {
		return errors.New("orchestrator: no inbox configured")
	}
	defer s.wg.Wait()

	var wake <-chan struct{}
	if w, ok := s.d.Inbox.(domain.WatcherPort); ok {
		ch, err := w.Watch(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("inbox watch unavailable; polling on interval only")
		} else {
			wake = ch
		}
	}

	tick := time.NewTicker(s.opt.PollInterval)
	defer tick.Stop()

	var pruneC <-chan time.Time
	pruner, canPrune := s.d.Inbox.(domain.PrunerPort)
	if canPrune && s.opt.PruneEvery > 0 {
		pt := time.NewTicker(s.opt.PruneEvery)
		defer pt.Stop()
		pruneC = pt.C
	}

	s.log.Info().Dur("interval", s.opt.PollInterval).Int("workers", s.opt.PollWorkers).Msg("poller started")
	s.pollLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("poller stopped")
			return nil
		case <-tick.C:
			s.pollLogged(ctx)
		case _, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			s.pollLogged(ctx)
		case <-pruneC:
			if n, err := pruner.Prune(ctx); err != nil {
				s.log.Warn().Err(err).Msg("inbox prune failed")
			} else if n > 0 {
				s.log.Info().Int("removed", n).Msg("inbox pruned")
			}
		}
	}
}

func (s *Service) pollLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if n, err := s.PollOnce(ctx); err != nil {
		s.log.Warn().Err(err).Msg("inbox poll failed")
	} else if n > 0 {
		s.log.Info().Int("messages", n).Msg("inbox poll handled messages")
	}
}

// PollOnce fetches pending messages and handles them concurrently
// A message is acknowledged before it is handled, so a crash never runs it twice
func (s *Service) PollOnce(ctx context.Context) (int, error) {
	if s.d.Inbox == nil {
		return 0, errors.New("orchestrator: no inbox configured")
	}
	msgs, err := s.d.Inbox.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.SetLimit(s.opt.PollWorkers)
	for _, m := range msgs {
		g.Go(func() error {
			s.handleOne(ctx, m)
			return nil
		})
	}
	_ = g.Wait()
	return len(msgs), nil
}

func (s *Service) handleOne(ctx context.Context, m mailbox.Message) {
	if err := s.d.Inbox.Ack(ctx, m.ID); err != nil {
		s.log.Error().Err(err).Str("message", m.ID).Msg("ack failed; message skipped")
		return
	}
	// failures are already logged and answered
	_ = s.HandleInbound(ctx, m)
}
