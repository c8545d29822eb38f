package service

import (
	"time"

	"lasrouter/internal/platform/config"
)

// Options tunes polling and health probing
type Options struct {
	PollInterval   time.Duration
	PollWorkers    int
	PruneEvery     time.Duration
	HealthTimeout  time.Duration
	HealthInterval time.Duration
}

// DefaultOptions poll every minute and probe every five
func DefaultOptions() Options {
	return Options{
		PollInterval:   time.Minute,
		PollWorkers:    4,
		PruneEvery:     time.Hour,
		HealthTimeout:  10 * time.Second,
		HealthInterval: 5 * time.Minute,
	}
}

// FromConfig reads POLL_* and HEALTH_* under cfg
func FromConfig(cfg config.Conf) Options {
	d := DefaultOptions()
	poll, health := cfg.Prefix("POLL_"), cfg.Prefix("HEALTH_")
	o := Options{
		PollInterval:   poll.MayDuration("INTERVAL", d.PollInterval),
		PollWorkers:    poll.MayInt("WORKERS", d.PollWorkers),
		PruneEvery:     poll.MayDuration("PRUNE_EVERY", d.PruneEvery),
		HealthTimeout:  health.MayDuration("TIMEOUT", d.HealthTimeout),
		HealthInterval: health.MayDuration("INTERVAL", d.HealthInterval),
	}
	return o.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.PollWorkers <= 0 {
		o.PollWorkers = d.PollWorkers
	}
	if o.HealthTimeout <= 0 {
		o.HealthTimeout = d.HealthTimeout
	}
	return o
}
