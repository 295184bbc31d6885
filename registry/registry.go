// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

import (
	"fmt"
	"iter"
	"slices"
	"sync"
)

// Capability identifies a service contract, e.g. "chat-completion".
type Capability string

// Factory is a deferred constructor for a service instance.
type Factory func() (any, error)

// Probe reports whether the implementation behind a factory also satisfies
// the given capability. It is evaluated once at registration time.
type Probe func(Capability) bool

// Provides returns a Probe backed by a statically declared capability set.
func Provides(caps ...Capability) Probe {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return func(c Capability) bool {
		_, ok := set[c]
		return ok
	}
}

// entry is a single registration. An anonymous entry has an empty name.
type entry struct {
	name    string
	factory Factory
}

// capabilityEntries holds the entries of one capability.
type capabilityEntries struct {
	order       []string // registration order of named entries
	byName      map[string]*entry
	anonymous   *entry
	defaultName string
	hasDefault  bool
}

// Registry maps (capability, name) pairs to factories.
// Registration and resolution are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	known   map[Capability]struct{}
	entries map[Capability]*capabilityEntries
}

// New creates an empty registry. When known capabilities are given,
// registrations under any other capability are rejected.
func New(known ...Capability) *Registry {
	r := &Registry{
		entries: make(map[Capability]*capabilityEntries),
	}
	if len(known) > 0 {
		r.known = make(map[Capability]struct{}, len(known))
		for _, c := range known {
			r.known[c] = struct{}{}
		}
	}
	return r
}

// Register stores factory under capability. A same-name registration replaces
// the previous entry. The entry becomes the default if AsDefault was given, if
// the capability has no default yet, or if the entry is anonymous.
func (r *Registry) Register(capability Capability, factory Factory, opts ...Option) error {
	o := newOptions(opts)
	if err := r.validate(capability, factory, o); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(capability, factory, o)
	return nil
}

// RegisterWithFanout registers factory under capability and, when secondary is
// set and probe reports it, under secondary as well with the same name and
// default flag. Both registrations are validated before either is stored.
func (r *Registry) RegisterWithFanout(capability, secondary Capability, factory Factory, probe Probe, opts ...Option) error {
	o := newOptions(opts)
	if err := r.validate(capability, factory, o); err != nil {
		return err
	}

	fanout := secondary != "" && secondary != capability && probe != nil && probe(secondary)
	if fanout {
		if err := r.validate(secondary, factory, o); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(capability, factory, o)
	if fanout {
		r.put(secondary, factory, o)
	}
	return nil
}

// Resolve constructs the entry registered under (capability, name). An empty
// name resolves the default entry. Errors returned by the factory are passed
// through unchanged.
func (r *Registry) Resolve(capability Capability, name string) (any, error) {
	factory, err := r.lookup(capability, name)
	if err != nil {
		return nil, err
	}
	return factory()
}

// ListNames returns the names registered under capability in registration
// order. The sequence is a snapshot taken at call time and may be iterated
// more than once.
func (r *Registry) ListNames(capability Capability) iter.Seq[string] {
	r.mu.RLock()
	var names []string
	if ce := r.entries[capability]; ce != nil {
		names = slices.Clone(ce.order)
	}
	r.mu.RUnlock()

	return func(yield func(string) bool) {
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// Capabilities returns the capabilities that have at least one entry, sorted.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.entries))
	for c := range r.entries {
		caps = append(caps, c)
	}
	slices.Sort(caps)
	return caps
}

// Has reports whether (capability, name) resolves to an entry. An empty name
// checks for a default.
func (r *Registry) Has(capability Capability, name string) bool {
	_, err := r.lookup(capability, name)
	return err == nil
}

// DefaultName returns the name of the default entry for capability. The
// returned name is empty when the default is anonymous.
func (r *Registry) DefaultName(capability Capability) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ce := r.entries[capability]
	if ce == nil || !ce.hasDefault {
		return "", false
	}
	return ce.defaultName, true
}

func (r *Registry) validate(capability Capability, factory Factory, o Options) error {
	if capability == "" {
		return fmt.Errorf("%w: capability is required", ErrInvalidRegistration)
	}
	if r.known != nil {
		if _, ok := r.known[capability]; !ok {
			return fmt.Errorf("%w: unknown capability %q", ErrInvalidRegistration, capability)
		}
	}
	if o.Named && o.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidRegistration)
	}
	if factory == nil {
		return fmt.Errorf("%w: factory is required", ErrInvalidRegistration)
	}
	return nil
}

// put stores the entry. Caller must hold the write lock.
func (r *Registry) put(capability Capability, factory Factory, o Options) {
	ce := r.entries[capability]
	if ce == nil {
		ce = &capabilityEntries{byName: make(map[string]*entry)}
		r.entries[capability] = ce
	}

	if !o.Named {
		ce.anonymous = &entry{factory: factory}
		ce.defaultName = ""
		ce.hasDefault = true
		return
	}

	if existing, ok := ce.byName[o.Name]; ok {
		existing.factory = factory
	} else {
		ce.byName[o.Name] = &entry{name: o.Name, factory: factory}
		ce.order = append(ce.order, o.Name)
	}

	if o.SetAsDefault || !ce.hasDefault {
		ce.defaultName = o.Name
		ce.hasDefault = true
	}
}

func (r *Registry) lookup(capability Capability, name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ce := r.entries[capability]
	if name != "" {
		if ce != nil {
			if e, ok := ce.byName[name]; ok {
				return e.factory, nil
			}
		}
		return nil, fmt.Errorf("%w: %s %q", ErrServiceNotFound, capability, name)
	}

	if ce == nil || !ce.hasDefault {
		return nil, fmt.Errorf("%w: %s", ErrNoDefaultService, capability)
	}
	if ce.defaultName == "" {
		return ce.anonymous.factory, nil
	}
	return ce.byName[ce.defaultName].factory, nil
}
