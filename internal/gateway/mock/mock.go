// Package mock provides an in-memory payment gateway for development and
// testing.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bitforgehq/storefront/internal/gateway"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// Gateway is an in-memory payment gateway. Newly created intents start in
// requires_action; tests and dev tooling move them with SetStatus.
type Gateway struct {
	mu      sync.Mutex
	intents map[string]gateway.IntentStatus
}

// New creates a new mock payment gateway.
func New() *Gateway {
	return &Gateway{intents: make(map[string]gateway.IntentStatus)}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return "mock"
}

// CreateIntent registers an in-memory intent.
func (g *Gateway) CreateIntent(_ context.Context, _ *gateway.CreateIntentInput) (*gateway.Intent, error) {
	id := "mock_pi_" + uuid.NewString()

	g.mu.Lock()
	g.intents[id] = gateway.IntentRequiresAction
	g.mu.Unlock()

	return &gateway.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       gateway.IntentRequiresAction,
	}, nil
}

// GetIntentStatus returns the stored status for the intent.
func (g *Gateway) GetIntentStatus(_ context.Context, intentID string) (gateway.IntentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.intents[intentID]
	if !ok {
		return "", apperrors.NotFound("payment intent", intentID)
	}
	return status, nil
}

// CancelIntent marks the intent failed.
func (g *Gateway) CancelIntent(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.intents[intentID]; !ok {
		return apperrors.NotFound("payment intent", intentID)
	}
	g.intents[intentID] = gateway.IntentFailed
	return nil
}

// SetStatus overrides the stored status for an intent.
func (g *Gateway) SetStatus(intentID string, status gateway.IntentStatus) {
	g.mu.Lock()
	g.intents[intentID] = status
	g.mu.Unlock()
}
