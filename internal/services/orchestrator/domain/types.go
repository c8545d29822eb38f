package domain

import (
	"lasrouter/internal/core/clarify"
	"lasrouter/internal/core/resolver"
	ledger "lasrouter/internal/services/ledger/domain"
)

// QueryResult carries either a clarification or the recorded request
type QueryResult struct {
	Clarification *clarify.Result `json:"clarification,omitempty"`
	Request       *ledger.Request `json:"request,omitempty"`
}

// Clarified reports whether the input was answered with a clarification
func (q QueryResult) Clarified() bool { return q.Clarification != nil }

// CheckResult previews resolution and gating without executing
// Resolution is nil when the lexical precheck stopped the input
type CheckResult struct {
	Resolution    *resolver.Resolution `json:"resolution,omitempty"`
	Clarification clarify.Result       `json:"clarification"`
}
