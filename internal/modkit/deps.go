// Package modkit provides module wiring and the shared deps handed to api modules
package modkit

import (
	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
)

// Deps holds the process-wide collaborators passed to every module
// domain services are handed over through module specific options instead
type Deps struct {
	Log     *logger.Logger
	Cfg     config.Conf
	Metrics *metrics.Metrics
}

// Logger returns Log or the named root logger when Log is unset
func (d Deps) Logger(name string) *logger.Logger {
	if d.Log != nil {
		l := d.Log.With().Str("module", name).Logger()
		return &l
	}
	return logger.Named(name)
}
