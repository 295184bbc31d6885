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

// Package registry provides a named multi-service registry keyed by capability.
//
// A Registry maps a (Capability, name) pair to a deferred constructor (Factory).
// Factories are never invoked at registration time; construction happens on
// Resolve, and any construction error is returned to the caller unchanged.
//
// # Defaults
//
// Each capability has at most one default entry. An entry becomes the default
// when it is registered with AsDefault, when it is the first entry for its
// capability, or when it is anonymous (registered without WithName). Resolving
// with an empty name returns the default.
//
// # Fan-out
//
// A concrete implementation may satisfy more than one capability, for example
// a chat model that can also serve plain text completions. RegisterWithFanout
// registers the same factory, name and default flag under a secondary
// capability when the implementation's declared capability set includes it:
//
//	chat := registry.Provides(ai.ChatCompletion, ai.TextCompletion)
//	err := r.RegisterWithFanout(ai.ChatCompletion, ai.TextCompletion, factory, chat,
//	    registry.WithName("gpt4"), registry.AsDefault())
//
// The capability set is declared by the caller; the registry never inspects a
// constructed instance to discover it.
//
// # Caching
//
// The registry does not cache instances. Wrap a factory with Memoize to keep
// the first successfully constructed instance.
package registry
