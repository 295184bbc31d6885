package ai

import (
	"net/http"

	"github.com/poiesic/aikernel/registry"
)

// ServiceOptions are the per-registration settings shared by vendor packages.
type ServiceOptions struct {
	// ServiceID names the registration. Empty means anonymous.
	ServiceID string

	// SetAsDefault makes the registration the default for its capability.
	SetAsDefault bool

	// AlsoAsTextCompletion fans a chat registration out to TextCompletion
	// when the implementation supports it.
	AlsoAsTextCompletion bool

	// HTTPClient overrides the client used for API calls.
	HTTPClient *http.Client

	// VectorCache, if set, caches embeddings.
	VectorCache VectorCache

	// Resilient wraps completion services with circuit breaker and retry.
	Resilient bool

	// MaxConcurrent caps in-flight calls of a resilient service. Zero means
	// unlimited.
	MaxConcurrent int
}

// ServiceOption is a functional option for a service registration.
type ServiceOption func(*ServiceOptions)

// WithServiceID names the registration.
func WithServiceID(id string) ServiceOption {
	return func(o *ServiceOptions) {
		o.ServiceID = id
	}
}

// AsDefault makes the registration the default for its capability.
func AsDefault() ServiceOption {
	return func(o *ServiceOptions) {
		o.SetAsDefault = true
	}
}

// SetDefault sets the default flag explicitly.
func SetDefault(setAsDefault bool) ServiceOption {
	return func(o *ServiceOptions) {
		o.SetAsDefault = setAsDefault
	}
}

// AlsoAsTextCompletion controls whether a chat registration is also
// registered as a text completion service.
func AlsoAsTextCompletion(enabled bool) ServiceOption {
	return func(o *ServiceOptions) {
		o.AlsoAsTextCompletion = enabled
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(o *ServiceOptions) {
		o.HTTPClient = client
	}
}

// WithVectorCache caches embeddings in vc.
func WithVectorCache(vc VectorCache) ServiceOption {
	return func(o *ServiceOptions) {
		o.VectorCache = vc
	}
}

// WithResilience enables circuit breaker and retry around completion calls.
func WithResilience(enabled bool) ServiceOption {
	return func(o *ServiceOptions) {
		o.Resilient = enabled
	}
}

// WithMaxConcurrent caps in-flight calls of a resilient service.
func WithMaxConcurrent(n int) ServiceOption {
	return func(o *ServiceOptions) {
		o.MaxConcurrent = n
	}
}

// NewServiceOptions applies opts over the defaults. Chat registrations fan
// out to text completion unless disabled.
func NewServiceOptions(opts ...ServiceOption) *ServiceOptions {
	o := &ServiceOptions{
		AlsoAsTextCompletion: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// RegistryOptions converts the name and default flag to registry options.
func (o *ServiceOptions) RegistryOptions() []registry.Option {
	opts := []registry.Option{registry.Default(o.SetAsDefault)}
	if o.ServiceID != "" {
		opts = append(opts, registry.WithName(o.ServiceID))
	}
	return opts
}

// Secondary returns the capability a chat registration fans out to, or ""
// when fan-out is disabled.
func (o *ServiceOptions) Secondary() registry.Capability {
	if o.AlsoAsTextCompletion {
		return TextCompletion
	}
	return ""
}
