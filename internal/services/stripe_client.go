package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/config"
)

// StripeClient handles communication with the Stripe API.
type StripeClient interface {
	CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntent, error)
}

// HTTPStripeClient implements StripeClient using HTTP.
type HTTPStripeClient struct {
	config     *config.StripeConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewStripeClient creates a new Stripe API client.
func NewStripeClient(cfg *config.StripeConfig, logger *zap.Logger) StripeClient {
	return &HTTPStripeClient{
		config:     cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// PaymentIntentRequest describes a card charge. Amount is in the smallest
// currency unit.
type PaymentIntentRequest struct {
	Amount        int64
	Currency      string
	PaymentMethod string
	Description   string
	Reference     string
}

// PaymentIntent is the subset of Stripe's payment intent object the
// storefront uses.
type PaymentIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent creates and confirms a payment intent in one call.
func (c *HTTPStripeClient) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("payment_method", req.PaymentMethod)
	form.Set("confirm", "true")
	form.Set("description", req.Description)
	form.Set("metadata[order_reference]", req.Reference)

	apiURL := c.config.APIBaseURL + "/v1/payment_intents"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			c.logger.Warn("stripe payment intent rejected",
				zap.Int("status", resp.StatusCode),
				zap.String("code", apiErr.Error.Code))
			return nil, fmt.Errorf("stripe: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(body))
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Info("stripe payment intent created",
		zap.String("intentId", intent.ID),
		zap.String("status", intent.Status))
	return &intent, nil
}
