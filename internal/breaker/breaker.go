// Package breaker guards calls to remote model APIs with a circuit breaker
// so that a provider that keeps failing (quota, outage) fails fast.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

// ErrOpen is returned while the breaker for a provider is open
var ErrOpen = errors.New("circuit breaker open")

// Settings tunes when a breaker trips
type Settings struct {
	ConsecutiveFailures uint32        // failures in a row before opening
	OpenTimeout         time.Duration // how long to stay open before a probe
}

// DefaultSettings returns the settings used for all API providers
func DefaultSettings() Settings {
	return Settings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

var (
	mu       sync.Mutex
	breakers = map[string]*gobreaker.CircuitBreaker{}
	settings = DefaultSettings()
)

// Configure replaces the settings for breakers created afterwards
func Configure(s Settings) {
	mu.Lock()
	defer mu.Unlock()
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultSettings().ConsecutiveFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultSettings().OpenTimeout
	}
	settings = s
	breakers = map[string]*gobreaker.CircuitBreaker{}
}

func get(name string) *gobreaker.CircuitBreaker {
	mu.Lock()
	defer mu.Unlock()
	if cb, ok := breakers[name]; ok {
		return cb
	}
	s := settings
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// A cancelled or rejected request says nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || isClientError(err)
		},
	})
	breakers[name] = cb
	return cb
}

// Do runs fn under the named provider's breaker
func Do[T any](name string, fn func() (T, error)) (T, error) {
	var zero T
	out, err := get(name).Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w", name, ErrOpen)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// State reports the current state name of a provider's breaker
func State(name string) string {
	return get(name).State().String()
}

// isClientError reports a 4xx answer caused by the request itself (bad input,
// auth, content policy). Rate limits and timeouts still count as failures.
func isClientError(err error) bool {
	code := statusCode(err)
	if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return false
	}
	return code >= 400 && code < 500
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	return 0
}
