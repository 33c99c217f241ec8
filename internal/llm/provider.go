package llm

import (
	"context"
	"strings"
)

// Request is a single prompt sent to one backend.
type Request struct {
	Model  string
	Prompt string
	JSON   bool // Ask the backend for a JSON object reply
}

// Provider is a stateless invocation capability for a family of models.
// Implementations build whatever client they need per call from apiKey and
// report failures as *CallError.
type Provider interface {
	Name() string
	Supports(model string) bool
	Call(ctx context.Context, apiKey string, req Request) (string, error)
}

// Credentials holds one API key per provider name.
type Credentials map[string]string

// Any reports whether at least one key is set.
func (c Credentials) Any() bool {
	for _, key := range c {
		if strings.TrimSpace(key) != "" {
			return true
		}
	}
	return false
}

// For returns the key for a provider.
func (c Credentials) For(provider string) string {
	return strings.TrimSpace(c[provider])
}

// Resolve merges an explicit per-request key for the given provider over
// the configured defaults. The explicit key wins when set.
func Resolve(defaults Credentials, provider, explicit string) Credentials {
	merged := make(Credentials, len(defaults)+1)
	for name, key := range defaults {
		merged[name] = key
	}
	if strings.TrimSpace(explicit) != "" {
		merged[provider] = explicit
	}
	return merged
}
