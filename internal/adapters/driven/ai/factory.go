package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Provider identifies an image generation backend
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	// ProviderNone disables image generation; every request fails with ErrServiceUnavailable
	ProviderNone Provider = "none"
)

// Settings selects and configures the image generator
type Settings struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

// IsConfigured reports whether a real generator can be built
func (s Settings) IsConfigured() bool {
	return s.Provider != ProviderNone && s.APIKey != ""
}

// NewImageGenerator creates an image generator from settings.
// Missing credentials yield the disabled generator rather than an error.
func NewImageGenerator(settings Settings) (driven.ImageGenerator, error) {
	if !settings.IsConfigured() {
		return Disabled{}, nil
	}

	switch settings.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIImage(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: unknown image provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// Disabled is the generator used when no provider is configured
type Disabled struct{}

// Generate always fails with ErrServiceUnavailable
func (Disabled) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	return nil, fmt.Errorf("%w: image generation is not configured", domain.ErrServiceUnavailable)
}

// Model returns an empty model name
func (Disabled) Model() string {
	return ""
}
