package config

import (
	"fmt"
	"os"
)

// StripeConfig holds configuration for Stripe integration
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	APIBaseURL     string
}

// LoadStripeConfig loads Stripe configuration from environment variables
func LoadStripeConfig() (*StripeConfig, error) {
	config := StripeConfig{
		SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		APIBaseURL:     os.Getenv("STRIPE_API_BASE_URL"),
	}

	// Validate required fields
	if config.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if config.PublishableKey == "" {
		return nil, fmt.Errorf("STRIPE_PUBLISHABLE_KEY is required")
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = "https://api.stripe.com" // Default to live API
	}

	return &config, nil
}
