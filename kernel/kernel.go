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
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/registry"
)

// Function is a callable skill function.
type Function func(ctx context.Context, vars *Variables) (string, error)

// Skill is a named collection of functions.
type Skill interface {
	Functions() map[string]Function
}

// Kernel resolves AI services and runs skill functions.
type Kernel struct {
	services *registry.Registry
	skills   map[string]map[string]Function
	logger   *slog.Logger
}

// Services returns the underlying registry for introspection.
func (k *Kernel) Services() *registry.Registry {
	return k.services
}

// Service resolves the entry (capability, name) and asserts it to T.
// An empty name resolves the default. Factory errors are returned unchanged.
func Service[T any](k *Kernel, capability registry.Capability, name string) (T, error) {
	var zero T
	v, err := k.services.Resolve(capability, name)
	if err != nil {
		return zero, err
	}
	svc, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s %q resolved to %T", ErrServiceTypeMismatch, capability, name, v)
	}
	return svc, nil
}

// TextCompletion resolves a text completion service.
func (k *Kernel) TextCompletion(name string) (ai.TextCompletionService, error) {
	return Service[ai.TextCompletionService](k, ai.TextCompletion, name)
}

// ChatCompletion resolves a chat completion service.
func (k *Kernel) ChatCompletion(name string) (ai.ChatCompletionService, error) {
	return Service[ai.ChatCompletionService](k, ai.ChatCompletion, name)
}

// Embedding resolves an embedding service.
func (k *Kernel) Embedding(name string) (ai.EmbeddingService, error) {
	return Service[ai.EmbeddingService](k, ai.EmbeddingGeneration, name)
}

// ImageGeneration resolves an image generation service.
func (k *Kernel) ImageGeneration(name string) (ai.ImageGenerationService, error) {
	return Service[ai.ImageGenerationService](k, ai.ImageGeneration, name)
}

// Skills returns the imported skill names, sorted.
func (k *Kernel) Skills() []string {
	return slices.Sorted(maps.Keys(k.skills))
}

// Functions returns the function names of skill, sorted.
func (k *Kernel) Functions(skill string) ([]string, error) {
	fns, ok := k.skills[skill]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, skill)
	}
	return slices.Sorted(maps.Keys(fns)), nil
}

// Function looks up a skill function.
func (k *Kernel) Function(skill, function string) (Function, error) {
	fns, ok := k.skills[skill]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, skill)
	}
	fn, ok := fns[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrFunctionNotFound, skill, function)
	}
	return fn, nil
}

// Run invokes skill.function with vars. A nil vars runs with an empty input.
func (k *Kernel) Run(ctx context.Context, skill, function string, vars *Variables) (string, error) {
	fn, err := k.Function(skill, function)
	if err != nil {
		return "", err
	}
	if vars == nil {
		vars = NewVariables("")
	}

	logger := k.logger.With("invocation", uuid.NewString(), "skill", skill, "function", function)
	logger.Debug("running function")

	out, err := fn(ctx, vars)
	if err != nil {
		logger.Error("function failed", "err", err)
		return "", err
	}
	logger.Debug("function completed", "length", len(out))
	return out, nil
}
