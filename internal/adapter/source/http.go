// internal/adapter/source/http.go

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

const userAgent = "mirror-trending/1.0"

// StatusError is returned when an upstream API answers with a non-2xx status
type StatusError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s api returned status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s api returned status %d: %s", e.Platform, e.StatusCode, e.Message)
}

// RateLimited reports whether the upstream rejected the call for quota reasons
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusForbidden
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// getJSON waits on the limiter, performs req and decodes a 2xx body into out
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, platform string, req *http.Request, out any) (*http.Response, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s api: %w", platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp, &StatusError{
			Platform:   platform,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, fmt.Errorf("failed to decode %s api response: %w", platform, err)
	}
	return resp, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
