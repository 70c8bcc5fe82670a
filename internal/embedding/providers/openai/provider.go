package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yildizm/docvec/internal/embedding"
)

type Provider struct {
	config    *Config
	client    *http.Client
	baseURL   *url.URL
	limiter   *rate.Limiter
	dimension int
}

func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, embedding.NewConfigurationError("openai", "base_url", fmt.Sprintf("invalid base URL: %v", err))
	}

	dimension, err := embedding.ResolveDimension("openai", config.Model, config.Dimension)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
		baseURL:   baseURL,
		limiter:   newLimiter(config.RequestsPerMinute, config.BurstSize),
		dimension: dimension,
	}, nil
}

// newLimiter returns an unlimited limiter when requestsPerMinute is zero
func newLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Dimension() int {
	return p.dimension
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Embed calls /v1/embeddings for a single input
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &EmbeddingRequest{
		Model:          p.config.Model,
		Input:          text,
		EncodingFormat: "float",
	}
	// Only the text-embedding-3 family accepts a shortened output size.
	if p.config.Dimension > 0 && strings.HasPrefix(p.config.Model, "text-embedding-3") {
		req.Dimensions = p.config.Dimension
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to marshal request", "openai", err)
	}

	endpoint := p.baseURL.JoinPath("/v1/embeddings")
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to create request", "openai", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.doRequestWithRetry(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var result EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to decode response", "openai", err)
	}
	if len(result.Data) == 0 {
		return nil, embedding.NewProviderError(embedding.ErrTypeProvider, "response contained no embeddings", "openai")
	}

	vec := embedding.ToFloat32(result.Data[0].Embedding)
	if err := embedding.CheckDimension("openai", vec, p.dimension); err != nil {
		return nil, err
	}
	return vec, nil
}

// HealthCheck verifies the API key by listing models
func (p *Provider) HealthCheck(ctx context.Context) error {
	endpoint := p.baseURL.JoinPath("/v1/models")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), http.NoBody)
	if err != nil {
		return embedding.NewProviderErrorWithCause(embedding.ErrTypeNetwork, "failed to create health check request", "openai", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return embedding.NewProviderErrorWithCause(embedding.ErrTypeNetwork, "health check failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return p.handleErrorResponse(resp)
	}
	return nil
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", p.config.OrganizationID)
	}
}

// doRequestWithRetry sends the request, retrying network failures, 429 and 5xx
// responses with exponential backoff. A Retry-After header overrides the backoff.
func (p *Provider) doRequestWithRetry(originalReq *http.Request) (*http.Response, error) {
	ctx := originalReq.Context()
	attempts := p.config.MaxRetries + 1

	var body []byte
	if originalReq.Body != nil {
		var err error
		body, err = io.ReadAll(originalReq.Body)
		if err != nil {
			return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to read request body", "openai", err)
		}
		_ = originalReq.Body.Close()
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeTimeout, "rate limiter wait cancelled", "openai", err)
		}

		req, err := http.NewRequestWithContext(ctx, originalReq.Method, originalReq.URL.String(), bytes.NewReader(body))
		if err != nil {
			return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeInternal, "failed to create retry request", "openai", err)
		}
		req.Header = originalReq.Header.Clone()

		last := attempt == attempts-1
		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeTimeout, "request cancelled", "openai", err)
			}
			if last {
				return nil, embedding.NewProviderErrorWithCause(embedding.ErrTypeNetwork, "request failed after retries", "openai", err)
			}
			if err := p.sleep(ctx, p.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			if last {
				return resp, nil
			}

			delay := p.backoff(attempt)
			if seconds, ok := retryAfter(resp); ok {
				delay = min(time.Duration(seconds)*time.Second, p.config.MaxDelay)
			}
			_ = resp.Body.Close()

			if err := p.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, embedding.NewProviderError(embedding.ErrTypeNetwork, "max retries exceeded", "openai")
}

func (p *Provider) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * p.config.InitialDelay
	return min(delay, p.config.MaxDelay)
}

func (p *Provider) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return embedding.NewProviderErrorWithCause(embedding.ErrTypeTimeout, "retry wait cancelled", "openai", ctx.Err())
	}
}

func retryAfter(resp *http.Response) (int, bool) {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

func (p *Provider) handleErrorResponse(resp *http.Response) error {
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var errorResp ErrorResponse
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Error.Message != "" {
			message = errorResp.Error.Message
		}
	}

	var pe *embedding.ProviderError
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		pe = embedding.NewProviderError(embedding.ErrTypeAuthentication, message, "openai")
	case http.StatusTooManyRequests:
		seconds, _ := retryAfter(resp)
		pe = embedding.NewRateLimitError("openai", seconds)
	case http.StatusBadRequest:
		pe = embedding.NewValidationError("openai", message)
	case http.StatusNotFound:
		pe = embedding.NewProviderError(embedding.ErrTypeNotFound, message, "openai")
	default:
		pe = embedding.NewProviderError(embedding.ErrTypeProvider, message, "openai")
	}
	pe.StatusCode = resp.StatusCode
	return pe
}

// IsAuthError reports whether err came from a rejected API key
func IsAuthError(err error) bool {
	return errors.Is(err, &embedding.ProviderError{Type: embedding.ErrTypeAuthentication})
}
