// Package provider holds plumbing shared by the upstream offer adapters:
// HTTP status classification, recorded-response fixtures and the Guard decorator.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// maxErrorBody bounds how much of an error body is kept in messages.
const maxErrorBody = 512

// StatusError classifies a non-2xx upstream response.
// 401/403 are auth failures, 429 carries Retry-After, 5xx is retryable unavailability,
// other 4xx mean the provider rejected the request.
func StatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewProviderError(provider, fmt.Errorf("%w: status %d", domain.ErrProviderAuth, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewRateLimitedError(provider, ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
	case resp.StatusCode >= 500:
		return domain.NewRetryableProviderError(provider,
			fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, detail))
	default:
		return domain.NewProviderError(provider, fmt.Errorf("request rejected: status %d: %s", resp.StatusCode, detail))
	}
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// TransportError classifies a failure to obtain any response at all.
func TransportError(provider string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewProviderTimeoutError(provider)
	case errors.Is(err, context.Canceled):
		return domain.NewProviderError(provider, context.Canceled)
	default:
		return domain.NewRetryableProviderError(provider, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err))
	}
}

// DecodeError wraps a payload that could not be decoded.
func DecodeError(provider string, err error) error {
	return domain.NewProviderError(provider, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err))
}

// ReadFixture returns a recorded provider response from path.
func ReadFixture(ctx context.Context, provider, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(provider, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewRetryableProviderError(provider, fmt.Errorf("failed to read fixture: %w", err))
	}
	return data, nil
}
