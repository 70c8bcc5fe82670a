package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yildizm/docvec/internal/embedding"
)

// Provider implements embedding.Provider against a local Ollama server
type Provider struct {
	config    *Config
	client    *http.Client
	baseURL   *url.URL
	dimension int
}

// New creates a new Ollama provider instance
func New(config *Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, embedding.NewConfigurationError("ollama", "base_url", "invalid base URL: "+err.Error())
	}

	dimension, err := embedding.ResolveDimension("ollama", config.Model, config.Dimension)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
		baseURL:   baseURL,
		dimension: dimension,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "ollama"
}

// Dimension returns the embedding length
func (p *Provider) Dimension() int {
	return p.dimension
}

// Close cleans up provider resources
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Embed requests the embedding of text from /api/embeddings
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint := p.baseURL.JoinPath("/api/embeddings")

	jsonData, err := json.Marshal(&EmbeddingsRequest{Model: p.config.Model, Prompt: text})
	if err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to marshal request", "ollama", err)
	}

	resp, err := p.postWithRetry(ctx, endpoint.String(), jsonData)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var result EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to decode response", "ollama", err)
	}

	vec := embedding.ToFloat32(result.Embedding)
	if err := embedding.CheckDimension("ollama", vec, p.dimension); err != nil {
		return nil, err
	}
	return vec, nil
}

// postWithRetry retries network failures and 5xx responses with exponential
// backoff. The last 5xx response is returned to the caller as is.
func (p *Provider) postWithRetry(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	attempts := p.config.MaxRetries + 1

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to create request", "ollama", err)
		}
		req.Header.Set("Content-Type", "application/json")

		last := attempt >= attempts-1
		resp, err := p.client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil || last {
				return nil, requestError(err)
			}
		case resp.StatusCode >= http.StatusInternalServerError && !last:
			_ = resp.Body.Close()
		default:
			return resp, nil
		}

		if err := p.sleep(ctx, p.backoff(attempt)); err != nil {
			return nil, err
		}
	}
}

func (p *Provider) backoff(attempt int) time.Duration {
	delay := p.config.InitialDelay << attempt
	if delay <= 0 || delay > p.config.MaxDelay {
		return p.config.MaxDelay
	}
	return delay
}

func (p *Provider) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return embedding.NewProviderErrorWithCause(embedding.ErrTypeTimeout, "retry wait cancelled", "ollama", ctx.Err())
	}
}

// HealthCheck verifies the server is reachable and the model is pulled
func (p *Provider) HealthCheck(ctx context.Context) error {
	available, err := p.IsModelAvailable(ctx, p.config.Model)
	if err != nil {
		return err
	}
	if !available {
		return embedding.NewProviderError(embedding.ErrTypeNotFound,
			fmt.Sprintf("model %q is not available; run 'ollama pull %s'", p.config.Model, p.config.Model), "ollama")
	}
	return nil
}

// ListModels returns available models
func (p *Provider) ListModels(ctx context.Context) ([]Model, error) {
	endpoint := p.baseURL.JoinPath("/api/tags")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), http.NoBody)
	if err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeNetwork, "failed to create request", "ollama", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, requestError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, embedding.NewProviderError(embedding.ErrTypeProvider, fmt.Sprintf("list models failed with status %d", resp.StatusCode), "ollama")
	}

	var tagsResp TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to decode response", "ollama", err)
	}

	return tagsResp.Models, nil
}

// IsModelAvailable checks if a model is available locally
func (p *Provider) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return false, err
	}

	for _, model := range models {
		if model.Name == modelName || strings.HasPrefix(model.Name, modelName+":") {
			return true, nil
		}
	}

	return false, nil
}

func requestError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return embedding.NewProviderErrorWithCause(embedding.ErrTypeTimeout, "request cancelled", "ollama", err)
	}
	return embedding.NewProviderErrorWithCause(embedding.ErrTypeNetwork, "request failed", "ollama", err)
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	var errorResp ErrorResponse
	if json.Unmarshal(body, &errorResp) == nil && errorResp.Error != "" {
		message = errorResp.Error
	}

	errType := embedding.ErrTypeProvider
	if resp.StatusCode == http.StatusNotFound {
		errType = embedding.ErrTypeNotFound
	}

	pe := embedding.NewProviderError(errType, message, "ollama")
	pe.StatusCode = resp.StatusCode
	return pe
}
