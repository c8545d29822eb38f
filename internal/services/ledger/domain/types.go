// Package domain defines the request ledger records and ports
package domain

import (
	"time"
)

// Status is the request lifecycle state
type Status string

const (
	StatusReceived   Status = "received"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition is allowed
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusError }

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// CanTransition lists the allowed moves; same-state updates are allowed while processing
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusReceived:
		return to == StatusProcessing || to == StatusError
	case StatusProcessing:
		return to == StatusProcessing || to == StatusCompleted || to == StatusError
	}
	return false
}

// Origin is where a request came from
type Origin string

const (
	OriginInbound Origin = "inbound-message"
	OriginDirect  Origin = "direct-query"
)

// Valid reports whether o is a known origin
func (o Origin) Valid() bool { return o == OriginInbound || o == OriginDirect }

// Resolution is the persisted outcome of intent resolution
type Resolution struct {
	Script     string  `json:"script"`
	LASFile    string  `json:"lasFile"`
	Tool       string  `json:"tool"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Source     string  `json:"source"`
}

// Request is one unit of work
type Request struct {
	ID                 string      `json:"id"`
	Origin             Origin      `json:"origin"`
	SourceIdentifier   string      `json:"sourceIdentifier"`
	RawText            string      `json:"rawText"`
	Status             Status      `json:"status"`
	Resolution         *Resolution `json:"resolution,omitempty"`
	OutputArtifactPath string      `json:"outputArtifactPath,omitempty"`
	ErrorDetail        string      `json:"errorDetail,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	CompletedAt        *time.Time  `json:"completedAt,omitempty"`
	DurationMs         *int64      `json:"durationMs,omitempty"`
}

// Clone returns a deep copy so callers never share ledger memory
func (r Request) Clone() Request {
	if r.Resolution != nil {
		res := *r.Resolution
		r.Resolution = &res
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	if r.DurationMs != nil {
		d := *r.DurationMs
		r.DurationMs = &d
	}
	return r
}

// HealthStatus is a component probe result
type HealthStatus string

const (
	HealthOnline  HealthStatus = "online"
	HealthWarning HealthStatus = "warning"
	HealthOffline HealthStatus = "offline"
)

// Valid reports whether h is a known health status
func (h HealthStatus) Valid() bool {
	return h == HealthOnline || h == HealthWarning || h == HealthOffline
}

// Component ids written by the health prober
const (
	ComponentIntentSource     = "intent_source"
	ComponentMailTransport    = "mail_transport"
	ComponentExecutionBackend = "execution_backend"
)

// HealthRecord is the last known state of one component
type HealthRecord struct {
	ComponentID   string         `json:"componentId"`
	Status        HealthStatus   `json:"status"`
	LastCheckedAt time.Time      `json:"lastCheckedAt"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ModelConfig is the persisted model provider selection
type ModelConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// RedactedKey replaces the API key on reads; writing it back keeps the stored key
const RedactedKey = "********"

// Redacted hides the API key for reads
func (m ModelConfig) Redacted() ModelConfig {
	if m.APIKey != "" {
		m.APIKey = RedactedKey
	}
	return m
}

// Document is the whole persisted ledger state
type Document struct {
	Requests    []Request      `json:"requests"`
	Health      []HealthRecord `json:"health"`
	ModelConfig *ModelConfig   `json:"modelConfig,omitempty"`
}

// Patch is a partial request update; nil fields are left untouched
type Patch struct {
	Status             *Status     `json:"status,omitempty"`
	Resolution         *Resolution `json:"resolution,omitempty"`
	OutputArtifactPath *string     `json:"outputArtifactPath,omitempty"`
	ErrorDetail        *string     `json:"errorDetail,omitempty"`
	CompletedAt        *time.Time  `json:"completedAt,omitempty"`
	DurationMs         *int64      `json:"durationMs,omitempty"`
}
