package registry

// Options is the explicit set of recognized registration options.
type Options struct {
	// Name identifies the entry within its capability. Only meaningful when
	// Named is true; an unnamed entry is anonymous and default-only.
	Name string

	// Named records whether a name was supplied, so an empty name can be
	// told apart from an absent one.
	Named bool

	// SetAsDefault makes the entry the default for its capability.
	SetAsDefault bool
}

// Option is a functional option for a registration.
type Option func(*Options)

// WithName registers the entry under name. An empty name is rejected with
// ErrInvalidRegistration.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
		o.Named = true
	}
}

// AsDefault marks the entry as the default for its capability.
func AsDefault() Option {
	return func(o *Options) {
		o.SetAsDefault = true
	}
}

// Default sets the default flag explicitly. Useful when the flag comes from
// configuration.
func Default(setAsDefault bool) Option {
	return func(o *Options) {
		o.SetAsDefault = setAsDefault
	}
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
