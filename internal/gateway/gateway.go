package gateway

import "context"

// IntentStatus is the processor-reported state of a payment intent.
type IntentStatus string

const (
	IntentRequiresAction IntentStatus = "requires_action"
	IntentSucceeded      IntentStatus = "succeeded"
	IntentFailed         IntentStatus = "failed"
)

// CreateIntentInput holds the parameters for creating a payment intent.
// Amount is in minor currency units.
type CreateIntentInput struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is an external processor's handle for an attempted charge. The
// client secret is the token the browser uses to confirm the charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
}

// Gateway defines the interface for payment processor integrations.
type Gateway interface {
	// Name returns the gateway name (e.g., "mock", "stripe").
	Name() string

	// CreateIntent registers a charge attempt with the processor.
	CreateIntent(ctx context.Context, input *CreateIntentInput) (*Intent, error)

	// GetIntentStatus re-queries the processor for the authoritative state
	// of an intent. Client-supplied outcomes are never trusted.
	GetIntentStatus(ctx context.Context, intentID string) (IntentStatus, error)

	// CancelIntent voids an intent that will not be confirmed. Used to back
	// out of a checkout whose order write failed.
	CancelIntent(ctx context.Context, intentID string) error
}
