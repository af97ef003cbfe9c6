// Package stripe implements the payment gateway against the Stripe HTTP API.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bitforgehq/storefront/internal/gateway"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
	"github.com/bitforgehq/storefront/pkg/httpclient"
)

// Config holds Stripe API settings.
type Config struct {
	APIKey  string `env:"STRIPE_API_KEY"`
	BaseURL string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
}

// Gateway calls the Stripe payment intents API through a circuit-breaking
// HTTP client. Transport errors, auth failures and 5xx responses all surface
// as gateway unavailability, never as a payment outcome.
type Gateway struct {
	client *httpclient.BreakerClient
	cfg    Config
	logger *slog.Logger
}

// New creates a Stripe-backed payment gateway.
func New(client *httpclient.BreakerClient, cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{client: client, cfg: cfg, logger: logger}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return "stripe"
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent registers a charge attempt with Stripe.
func (g *Gateway) CreateIntent(ctx context.Context, input *gateway.CreateIntentInput) (*gateway.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(input.Amount, 10))
	form.Set("currency", input.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range input.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	status, body, err := g.client.Do(ctx,
		http.MethodPost,
		g.cfg.BaseURL+"/v1/payment_intents",
		[]byte(form.Encode()),
		g.headers(),
	)
	if err != nil {
		g.logger.ErrorContext(ctx, "stripe create intent failed", slog.String("error", err.Error()))
		return nil, apperrors.GatewayUnavailable("payment processor unreachable")
	}

	resp, err := decodeIntent(status, body)
	if err != nil {
		return nil, err
	}

	return &gateway.Intent{
		ID:           resp.ID,
		ClientSecret: resp.ClientSecret,
		Status:       mapStatus(resp.Status),
	}, nil
}

// GetIntentStatus re-queries Stripe for the authoritative intent state.
func (g *Gateway) GetIntentStatus(ctx context.Context, intentID string) (gateway.IntentStatus, error) {
	status, body, err := g.client.Do(ctx,
		http.MethodGet,
		g.cfg.BaseURL+"/v1/payment_intents/"+url.PathEscape(intentID),
		nil,
		g.headers(),
	)
	if err != nil {
		g.logger.ErrorContext(ctx, "stripe get intent failed",
			slog.String("intent_id", intentID),
			slog.String("error", err.Error()),
		)
		return "", apperrors.GatewayUnavailable("payment processor unreachable")
	}

	resp, err := decodeIntent(status, body)
	if err != nil {
		return "", err
	}

	return mapStatus(resp.Status), nil
}

// CancelIntent voids an intent that will not be confirmed.
func (g *Gateway) CancelIntent(ctx context.Context, intentID string) error {
	status, body, err := g.client.Do(ctx,
		http.MethodPost,
		g.cfg.BaseURL+"/v1/payment_intents/"+url.PathEscape(intentID)+"/cancel",
		nil,
		g.headers(),
	)
	if err != nil {
		return apperrors.GatewayUnavailable("payment processor unreachable")
	}

	if _, err := decodeIntent(status, body); err != nil {
		return err
	}

	return nil
}

func (g *Gateway) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+g.cfg.APIKey)
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return h
}

func decodeIntent(status int, body []byte) (*intentResponse, error) {
	var resp intentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.GatewayUnavailable("malformed payment processor response")
	}

	if status >= http.StatusBadRequest {
		msg := "payment processor rejected the request"
		if resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return nil, apperrors.GatewayUnavailable(msg)
	}

	return &resp, nil
}

// Stripe distinguishes more intent states than the checkout flow needs;
// anything that is not succeeded and still confirmable maps to
// requires_action.
func mapStatus(s string) gateway.IntentStatus {
	switch s {
	case "succeeded":
		return gateway.IntentSucceeded
	case "canceled", "failed":
		return gateway.IntentFailed
	default:
		return gateway.IntentRequiresAction
	}
}
