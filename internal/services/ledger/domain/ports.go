package domain

import "context"

// WriterPort mutates requests
type WriterPort interface {
	Create(ctx context.Context, origin Origin, source, rawText string) (Request, error)
	Update(ctx context.Context, id string, p Patch) (Request, error)
}

// ReaderPort reads requests
type ReaderPort interface {
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, limit int) ([]Request, error)
}

// HealthPort reads and writes component health
type HealthPort interface {
	ComponentHealth(ctx context.Context) ([]HealthRecord, error)
	SetComponentHealth(ctx context.Context, id string, status HealthStatus, metadata map[string]any) (HealthRecord, error)
}

// SettingsPort reads and writes the model provider selection
type SettingsPort interface {
	ModelConfig(ctx context.Context) (*ModelConfig, error)
	SetModelConfig(ctx context.Context, cfg ModelConfig) (ModelConfig, error)
}

// LedgerPort is everything the orchestrator needs
type LedgerPort interface {
	WriterPort
	ReaderPort
	HealthPort
	SettingsPort
}
