package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure OpenAIImage implements ImageGenerator
var _ driven.ImageGenerator = (*OpenAIImage)(nil)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultImageModel    = "dall-e-3"
	defaultImageSize     = "1024x1024"
)

// OpenAIImage implements ImageGenerator against an OpenAI-compatible images API
type OpenAIImage struct {
	model  string
	size   string
	client *resty.Client
}

// NewOpenAIImage creates a new OpenAI image generator
func NewOpenAIImage(apiKey, model, baseURL string) (*OpenAIImage, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = defaultImageModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(2*time.Minute).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(retryCondition)

	return &OpenAIImage{
		model:  model,
		size:   defaultImageSize,
		client: client,
	}, nil
}

// retryCondition retries rate limits and server errors, never client errors
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// imageRequest is the request body for the images/generations endpoint
type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// imageResponse is the response from the images/generations endpoint
type imageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// apiError is the error envelope returned by the API
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (e *apiError) message() string {
	if e == nil || e.Error == nil {
		return ""
	}
	return e.Error.Message
}

// Generate requests one image and returns the URL it can be downloaded from.
// Transport failures, rate limits and 5xx responses map to ErrServiceUnavailable;
// other rejections (e.g. a refused prompt) map to ErrInvalidInput.
func (g *OpenAIImage) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	var result imageResponse
	var failure apiError

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(imageRequest{
			Model:          g.model,
			Prompt:         prompt,
			N:              1,
			Size:           g.size,
			ResponseFormat: "url",
		}).
		SetResult(&result).
		SetError(&failure).
		Post("/images/generations")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: image request failed: %v", domain.ErrServiceUnavailable, err)
	}

	if resp.IsError() {
		msg := failure.message()
		if msg == "" {
			msg = resp.Status()
		}
		code := resp.StatusCode()
		if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: image API returned %d: %s", domain.ErrServiceUnavailable, code, msg)
		}
		return nil, fmt.Errorf("%w: image API rejected the prompt: %s", domain.ErrInvalidInput, msg)
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: image API returned no image URL", domain.ErrServiceUnavailable)
	}

	return &domain.GeneratedImage{
		SourceURL:     result.Data[0].URL,
		Format:        formatFromURL(result.Data[0].URL),
		RevisedPrompt: result.Data[0].RevisedPrompt,
	}, nil
}

// Model returns the model name being used
func (g *OpenAIImage) Model() string {
	return g.model
}

// formatFromURL takes the file extension of the URL path, defaulting to png
func formatFromURL(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(raw), ".")); ext {
	case "png", "jpg", "jpeg", "webp", "gif":
		return ext
	default:
		return "png"
	}
}
