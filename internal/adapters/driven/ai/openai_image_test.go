package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIImage {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewOpenAIImage("sk-test", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return g
}

func TestNewOpenAIImage_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIImage("", "dall-e-3", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIImage_Defaults(t *testing.T) {
	g, err := NewOpenAIImage("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != defaultImageModel {
		t.Errorf("expected default model %s, got %s", defaultImageModel, g.Model())
	}
	if g.client.BaseURL != defaultOpenAIBaseURL {
		t.Errorf("expected default base URL, got %s", g.client.BaseURL)
	}
}

func TestOpenAIImage_Generate_Success(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", got)
		}

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Prompt != "a lighthouse at dusk" || req.N != 1 || req.ResponseFormat != "url" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://cdn.test/img/abc.webp?sig=1","revised_prompt":"a lighthouse"}]}`))
	})

	img, err := g.Generate(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.SourceURL != "https://cdn.test/img/abc.webp?sig=1" {
		t.Errorf("unexpected source URL %s", img.SourceURL)
	}
	if img.Format != "webp" {
		t.Errorf("expected webp, got %s", img.Format)
	}
	if img.RevisedPrompt != "a lighthouse" {
		t.Errorf("unexpected revised prompt %s", img.RevisedPrompt)
	}
}

func TestOpenAIImage_Generate_ServerErrorRetriedThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	})

	_, err := g.Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOpenAIImage_Generate_RejectedPrompt(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy violation","type":"invalid_request_error"}}`))
	})

	_, err := g.Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls.Load())
	}
}

func TestOpenAIImage_Generate_NoURL(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	_, err := g.Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestOpenAIImage_Generate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	g, _ := NewOpenAIImage("sk-test", "", url)
	g.client.SetRetryCount(0)

	_, err := g.Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestFormatFromURL(t *testing.T) {
	tests := map[string]string{
		"https://x.test/a.png":          "png",
		"https://x.test/a.JPG":          "jpg",
		"https://x.test/a.webp?sig=abc": "webp",
		"https://x.test/a":              "png",
		"https://x.test/a.exe":          "png",
	}
	for in, want := range tests {
		if got := formatFromURL(in); got != want {
			t.Errorf("formatFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewImageGenerator(t *testing.T) {
	gen, err := NewImageGenerator(Settings{Provider: ProviderOpenAI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gen.(Disabled); !ok {
		t.Errorf("expected disabled generator without API key, got %T", gen)
	}
	if _, err := gen.Generate(context.Background(), "x"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}

	gen, err = NewImageGenerator(Settings{Provider: ProviderOpenAI, APIKey: "sk", Model: "gpt-image-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Model() != "gpt-image-1" {
		t.Errorf("unexpected model %s", gen.Model())
	}

	if _, err := NewImageGenerator(Settings{Provider: "stable", APIKey: "sk"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown provider, got %v", err)
	}
}
