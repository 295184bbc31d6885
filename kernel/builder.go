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

package kernel

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/registry"
)

// Extension contributes registrations to a Builder.
type Extension func(b *Builder) error

// semanticDef is a semantic function bound to the kernel at Build time.
type semanticDef struct {
	skill     string
	function  string
	template  string
	settings  *ai.CompletionSettings
	serviceID string
}

// Builder assembles a Kernel.
type Builder struct {
	services  *registry.Registry
	skills    map[string]map[string]Function
	semantics []semanticDef
	base      *slog.Logger
	logger    *slog.Logger
	err       error
	built     bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.base = logger
		}
	}
}

// WithRegistry uses an existing registry instead of a fresh one.
func WithRegistry(r *registry.Registry) BuilderOption {
	return func(b *Builder) {
		if r != nil {
			b.services = r
		}
	}
}

// NewBuilder creates a builder whose registry accepts the ai capabilities.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		services: registry.New(ai.Capabilities...),
		skills:   make(map[string]map[string]Function),
		base:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.base.With("component", "kernel-builder")
	return b
}

// WithAIService registers factory under capability.
func (b *Builder) WithAIService(capability registry.Capability, factory registry.Factory, opts ...registry.Option) *Builder {
	if b.closed() {
		return b
	}
	if err := b.services.Register(capability, factory, opts...); err != nil {
		b.fail(err)
		return b
	}
	b.logger.Debug("registered AI service", "capability", capability)
	return b
}

// WithAIServiceFanout registers factory under capability and, if probe
// reports it, under secondary too.
func (b *Builder) WithAIServiceFanout(capability, secondary registry.Capability, factory registry.Factory, probe registry.Probe, opts ...registry.Option) *Builder {
	if b.closed() {
		return b
	}
	if err := b.services.RegisterWithFanout(capability, secondary, factory, probe, opts...); err != nil {
		b.fail(err)
		return b
	}
	b.logger.Debug("registered AI service", "capability", capability, "secondary", secondary)
	return b
}

// With applies extensions in order.
func (b *Builder) With(exts ...Extension) *Builder {
	for _, ext := range exts {
		if b.closed() {
			return b
		}
		if ext == nil {
			continue
		}
		// Extensions that register through the builder return b.err, which
		// has already been recorded.
		if err := ext(b); err != nil && err != b.err {
			b.fail(err)
		}
	}
	return b
}

// WithSkill imports the functions of skill under name. Functions of an
// existing skill with the same name are merged, later ones win.
func (b *Builder) WithSkill(name string, skill Skill) *Builder {
	if b.closed() {
		return b
	}
	if name == "" || skill == nil {
		b.fail(fmt.Errorf("%w: name and skill are required", ErrInvalidSkill))
		return b
	}
	fns := b.skills[name]
	if fns == nil {
		fns = make(map[string]Function)
		b.skills[name] = fns
	}
	for fnName, fn := range skill.Functions() {
		if fn == nil {
			continue
		}
		fns[fnName] = fn
	}
	return b
}

// WithSemanticFunction adds a prompt-template function to skill. The
// template's {{$var}} placeholders are filled from the call's Variables and the
// result is sent to the text completion service named serviceID ("" for the
// default).
func (b *Builder) WithSemanticFunction(skill, function, template string, settings *ai.CompletionSettings, serviceID string) *Builder {
	if b.closed() {
		return b
	}
	if skill == "" || function == "" {
		b.fail(fmt.Errorf("%w: skill and function names are required", ErrInvalidSkill))
		return b
	}
	b.semantics = append(b.semantics, semanticDef{
		skill:     skill,
		function:  function,
		template:  template,
		settings:  settings,
		serviceID: serviceID,
	})
	return b
}

// Services returns the registry being populated. It is the same registry the
// built kernel resolves from.
func (b *Builder) Services() *registry.Registry {
	return b.services
}

// Err returns the first registration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the kernel, or the first error recorded while building.
// The kernel shares the builder's registry, so once Build succeeds the
// builder refuses further registrations with ErrBuilderSealed. Build may be
// called again to get another kernel over the same registrations.
func (b *Builder) Build() (*Kernel, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.built = true

	k := &Kernel{
		services: b.services,
		skills:   make(map[string]map[string]Function, len(b.skills)),
		logger:   b.base.With("component", "kernel"),
	}
	for name, fns := range b.skills {
		cp := make(map[string]Function, len(fns))
		for fnName, fn := range fns {
			cp[fnName] = fn
		}
		k.skills[name] = cp
	}
	for _, def := range b.semantics {
		fns := k.skills[def.skill]
		if fns == nil {
			fns = make(map[string]Function)
			k.skills[def.skill] = fns
		}
		fns[def.function] = k.SemanticFunction(def.template, def.settings, def.serviceID)
	}
	return k, nil
}

// closed reports whether registrations must be skipped, recording
// ErrBuilderSealed on the first attempt after Build.
func (b *Builder) closed() bool {
	if b.err != nil {
		return true
	}
	if b.built {
		b.fail(ErrBuilderSealed)
		return true
	}
	return false
}

func (b *Builder) fail(err error) {
	b.logger.Error("kernel registration failed", "err", err)
	b.err = err
}
