package carriers

import (
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultRatePerMinute   = 60
	defaultSignatureHeader = "X-Signature"
)

// ProviderConfig is the static configuration of one carrier
type ProviderConfig struct {
	// Name is the unique, case-insensitive carrier key
	Name string

	// BaseURL for the carrier API
	BaseURL string

	// APIKey is sent as a bearer token
	APIKey string

	// Timeout for each HTTP call
	Timeout time.Duration

	// MaxRetries caps how many times a 429 is retried
	MaxRetries int

	// RateLimitPerMinute is the carrier's published request budget
	RateLimitPerMinute int

	// RoutingCodes are carrier routing fields such as agency and producer codes
	RoutingCodes map[string]string

	// WebhookSecret verifies signed inbound webhooks
	WebhookSecret string

	// SignatureHeader names the inbound webhook signature header
	SignatureHeader string
}

// Key returns the normalized registry key for the carrier
func (c ProviderConfig) Key() string {
	return normalizeName(c.Name)
}

// Configured reports whether the carrier has a credential
func (c ProviderConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// RoutingCode returns a routing field value or ""
func (c ProviderConfig) RoutingCode(key string) string {
	return c.RoutingCodes[key]
}

func (c ProviderConfig) clone() ProviderConfig {
	out := c
	if c.RoutingCodes != nil {
		out.RoutingCodes = make(map[string]string, len(c.RoutingCodes))
		for k, v := range c.RoutingCodes {
			out.RoutingCodes[k] = v
		}
	}
	return out
}

func (c ProviderConfig) withDefaults() ProviderConfig {
	c.Name = strings.TrimSpace(c.Name)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = defaultRatePerMinute
	}
	if c.SignatureHeader == "" {
		c.SignatureHeader = defaultSignatureHeader
	}
	return c
}

// Registry holds the carriers known to the gateway. It is populated once at
// startup and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderConfig
	order     []string
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]ProviderConfig),
	}
}

// NewRegistryFrom builds a registry from a list of configs, failing on the first invalid or duplicate entry
func NewRegistryFrom(configs []ProviderConfig) (*Registry, error) {
	r := NewRegistry()
	for _, cfg := range configs {
		if err := r.Register(cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a carrier configuration
func (r *Registry) Register(cfg ProviderConfig) error {
	key := cfg.Key()
	if key == "" {
		return errors.New("provider name cannot be empty")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("provider retry budget cannot be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		return NewProviderError(cfg.Name, CodeDuplicateProvider, "provider already registered", 0, nil)
	}

	r.providers[key] = cfg.withDefaults().clone()
	r.order = append(r.order, key)
	return nil
}

// Resolve retrieves a carrier configuration by name
func (r *Registry) Resolve(name string) (ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, exists := r.providers[normalizeName(name)]
	if !exists {
		return ProviderConfig{}, NewProviderError(name, CodeUnknownProvider, "unknown provider", 0, nil)
	}
	return cfg.clone(), nil
}

// Configured resolves a carrier and fails fast when it has no credential
func (r *Registry) Configured(name string) (ProviderConfig, error) {
	cfg, err := r.Resolve(name)
	if err != nil {
		return ProviderConfig{}, err
	}
	if !cfg.Configured() {
		return ProviderConfig{}, NewProviderError(cfg.Key(), CodeUnconfiguredProvider, "provider credential not configured", 0, nil)
	}
	return cfg, nil
}

// List returns all registered carrier names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered carriers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
