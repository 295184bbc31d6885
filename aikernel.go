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

// Package aikernel wires a kernel from a configuration file: AI services,
// the optional persistent embedding cache and the built-in skills.
package aikernel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/aikernel/config"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/skills/fileio"
	"github.com/poiesic/aikernel/storage/badger"
)

// Runtime owns a kernel and the resources behind it.
type Runtime struct {
	kernel *kernel.Kernel
	store  *badger.VectorStore
	logger *slog.Logger
}

// Option configures a Runtime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	extensions []kernel.Extension
	logger     *slog.Logger
	preload    bool
	workers    int
}

// WithExtensions applies extra builder extensions after the configured services.
func WithExtensions(exts ...kernel.Extension) Option {
	return func(o *runtimeOptions) {
		o.extensions = append(o.extensions, exts...)
	}
}

// WithLogger sets the logger used by the runtime and its kernel.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runtimeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPreload constructs every service on open using workers goroutines,
// failing Open if any construction fails.
func WithPreload(workers int) Option {
	return func(o *runtimeOptions) {
		o.preload = true
		o.workers = workers
	}
}

// Open loads the configuration at configPath and builds a Runtime.
// A relative cache_dir is resolved against the configuration's directory.
func Open(configPath string, opts ...Option) (*Runtime, error) {
	file, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if file.CacheDir != "" && !filepath.IsAbs(file.CacheDir) {
		file.CacheDir = filepath.Join(filepath.Dir(configPath), file.CacheDir)
	}
	return New(file, opts...)
}

// New builds a Runtime from an already loaded configuration.
func New(file *config.File, opts ...Option) (*Runtime, error) {
	options := &runtimeOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger.With("component", "runtime")

	var store *badger.VectorStore
	if file.CacheDir != "" {
		var err error
		store, err = badger.NewVectorStore(file.CacheDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened vector cache", "dir", file.CacheDir)
	}

	rt, err := build(file, store, options)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	rt.logger = logger
	return rt, nil
}

func build(file *config.File, store *badger.VectorStore, options *runtimeOptions) (*Runtime, error) {
	var exts []kernel.Extension
	var err error
	if store != nil {
		exts, err = file.Extensions(store)
	} else {
		// A typed nil would read as a configured cache
		exts, err = file.Extensions(nil)
	}
	if err != nil {
		return nil, err
	}

	k, err := kernel.NewBuilder(kernel.WithLogger(options.logger)).
		With(exts...).
		WithSkill(fileio.SkillName, fileio.New()).
		With(options.extensions...).
		Build()
	if err != nil {
		return nil, err
	}

	if options.preload {
		if err := k.Preload(context.Background(), options.workers); err != nil {
			return nil, fmt.Errorf("preload services: %w", err)
		}
	}
	return &Runtime{kernel: k, store: store}, nil
}

// Kernel returns the configured kernel.
func (rt *Runtime) Kernel() *kernel.Kernel {
	return rt.kernel
}

// VectorStore returns the embedding cache, or nil when none is configured.
func (rt *Runtime) VectorStore() *badger.VectorStore {
	return rt.store
}

// Close releases the embedding cache.
func (rt *Runtime) Close() error {
	if rt.store == nil {
		return nil
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Error("error closing vector cache", "err", err)
		return err
	}
	return nil
}
