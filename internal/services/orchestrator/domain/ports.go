// Package domain defines the collaborators the orchestrator drives
package domain

import (
	"context"

	"lasrouter/internal/adapters/mailbox"
	"lasrouter/internal/core/clarify"
	"lasrouter/internal/core/resolver"
	broadcast "lasrouter/internal/services/broadcast/service"
)

// ResolverPort maps text to a triple
type ResolverPort interface {
	Resolve(ctx context.Context, text string, mc *resolver.ModelConfig) resolver.Resolution
}

// GatePort decides whether to ask for clarification
type GatePort interface {
	Precheck(text string) (clarify.Result, bool)
	ShouldClarify(text string, res resolver.Resolution) clarify.Result
}

// PublisherPort fans out lifecycle events
type PublisherPort interface {
	Publish(ev broadcast.Event)
}

// InboxPort yields pending inbound messages
type InboxPort interface {
	Fetch(ctx context.Context) ([]mailbox.Message, error)
	Ack(ctx context.Context, id string) error
}

// WatcherPort signals early polls; optional
type WatcherPort interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// PrunerPort drops old handled messages; optional
type PrunerPort interface {
	Prune(ctx context.Context) (int, error)
}

// MailerPort delivers replies
type MailerPort interface {
	Send(ctx context.Context, r mailbox.Reply) error
}

// ModelPingerPort checks the model endpoint
type ModelPingerPort interface {
	Ping(ctx context.Context, mc resolver.ModelConfig) error
}

// ProbePort checks one component
type ProbePort interface {
	Probe(ctx context.Context) (bool, map[string]any)
}
