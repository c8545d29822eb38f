package service

import (
	"os"

	"lasrouter/internal/platform/config"
	"lasrouter/internal/platform/store/pg"
)

// Driver selects the ledger backend
const (
	DriverFile   = "file"
	DriverPG     = "pg"
	DriverMemory = "memory"
)

// Options configures the ledger
type Options struct {
	Driver       string
	Path         string
	PG           pg.Config
	DefaultLimit int
	MaxLimit     int
}

// FromConfig reads LEDGER_* under cfg
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("LEDGER_")
	wd, _ := os.Getwd()
	return Options{
		Driver:       c.MayEnum("DRIVER", DriverFile, DriverFile, DriverPG, DriverMemory),
		Path:         c.MayPath("PATH", "data/ledger.json", wd),
		PG:           pg.FromConfig(c),
		DefaultLimit: c.MayInt("LIST_DEFAULT", 50),
		MaxLimit:     c.MayInt("LIST_MAX", 500),
	}
}
