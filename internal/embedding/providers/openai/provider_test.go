package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yildizm/docvec/internal/embedding"
)

func testConfig(serverURL string) *Config {
	config := DefaultConfig()
	config.APIKey = "test-key"
	config.BaseURL = serverURL
	config.Dimension = 3
	config.InitialDelay = time.Millisecond
	config.MaxDelay = 5 * time.Millisecond
	return config
}

func writeEmbedding(w http.ResponseWriter, values []float64) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(EmbeddingResponse{
		Object: "list",
		Data:   []EmbeddingData{{Object: "embedding", Embedding: values}},
		Model:  DefaultModel,
	})
}

func TestProvider_New(t *testing.T) {
	config := DefaultConfig()
	config.APIKey = "test-key"

	provider, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("Expected provider name 'openai', got '%s'", provider.Name())
	}
	if provider.Dimension() != 1536 {
		t.Errorf("Expected default dimension 1536, got %d", provider.Dimension())
	}

	if _, err := New(DefaultConfig()); !embedding.IsConfigurationError(err) {
		t.Errorf("Expected configuration error without API key, got %v", err)
	}
}

func TestProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("Expected path '/v1/embeddings', got '%s'", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header '%s'", got)
		}

		var req EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Input != "Stock markets rose today" {
			t.Errorf("Unexpected input '%s'", req.Input)
		}
		if req.Dimensions != 3 {
			t.Errorf("Expected dimensions 3 in request, got %d", req.Dimensions)
		}

		writeEmbedding(w, []float64{0.5, 0.25, -1})
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vec, err := provider.Embed(context.Background(), "Stock markets rose today")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[2] != -1 {
		t.Errorf("Unexpected embedding %v", vec)
	}
}

func TestProvider_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeEmbedding(w, []float64{1, 0, 0})
	}))
	defer server.Close()

	provider, _ := New(testConfig(server.URL))

	if _, err := provider.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestProvider_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.MaxRetries = 2
	provider, _ := New(config)

	_, err := provider.Embed(context.Background(), "text")
	if !embedding.IsRateLimitError(err) {
		t.Fatalf("Expected rate limit error, got %v", err)
	}
	var pe *embedding.ProviderError
	if errors.As(err, &pe) && pe.RetryAfter != 7 {
		t.Errorf("Expected RetryAfter 7, got %d", pe.RetryAfter)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestProvider_ErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType embedding.ErrorType
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantType: embedding.ErrTypeAuthentication},
		{name: "bad request", status: http.StatusBadRequest, wantType: embedding.ErrTypeValidation},
		{name: "not found", status: http.StatusNotFound, wantType: embedding.ErrTypeNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantType: embedding.ErrTypeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"failure","type":"test"}}`))
			}))
			defer server.Close()

			config := testConfig(server.URL)
			config.MaxRetries = 0
			provider, _ := New(config)

			_, err := provider.Embed(context.Background(), "text")
			var pe *embedding.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected ProviderError, got %v", err)
			}
			if pe.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, pe.Type)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, pe.StatusCode)
			}
		})
	}
}

func TestProvider_AuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider, _ := New(testConfig(server.URL))

	_, err := provider.Embed(context.Background(), "text")
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", calls.Load())
	}
}

func TestProvider_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbedding(w, []float64{1, 2})
	}))
	defer server.Close()

	provider, _ := New(testConfig(server.URL))

	_, err := provider.Embed(context.Background(), "text")
	if !errors.Is(err, &embedding.ProviderError{Type: embedding.ErrTypeDimension}) {
		t.Errorf("Expected dimension error, got %v", err)
	}
}

func TestProvider_RateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbedding(w, []float64{1, 0, 0})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.RequestsPerMinute = 1
	config.BurstSize = 1
	provider, _ := New(config)

	if _, err := provider.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := provider.Embed(ctx, "second")
	if !errors.Is(err, &embedding.ProviderError{Type: embedding.ErrTypeTimeout}) {
		t.Errorf("Expected limiter to block until timeout, got %v", err)
	}
}

func TestFactory(t *testing.T) {
	registry := embedding.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := registry.Create(&embedding.ProviderConfig{Type: "openai"}); !embedding.IsConfigurationError(err) {
		t.Errorf("Expected configuration error without API key, got %v", err)
	}

	provider, err := registry.Create(&embedding.ProviderConfig{
		Type:   "openai",
		APIKey: "key",
		Model:  "text-embedding-3-large",
		Headers: map[string]string{
			"OpenAI-Organization": "org-1",
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if provider.Dimension() != 3072 {
		t.Errorf("Expected dimension 3072, got %d", provider.Dimension())
	}
	if got := provider.(*Provider).config.OrganizationID; got != "org-1" {
		t.Errorf("Expected organization 'org-1', got '%s'", got)
	}
}
