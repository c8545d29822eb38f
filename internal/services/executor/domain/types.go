// Package domain holds the execution adapter contract
package domain

import (
	"context"

	"lasrouter/internal/core/catalog"
)

// Outcome is the result of one analysis run
// Error is set whenever Success is false
type Outcome struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"outputPath,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// ExecutorPort runs one catalog triple to completion
type ExecutorPort interface {
	Execute(ctx context.Context, t catalog.Triple) Outcome
}

// ProberPort reports whether the execution backend can run at all
type ProberPort interface {
	Probe(ctx context.Context) (ok bool, detail map[string]any)
}
