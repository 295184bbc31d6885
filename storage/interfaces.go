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

package storage

import "context"

// VectorRecord is a cached embedding. Text is kept alongside the vector so
// hash collisions on the key can be detected.
type VectorRecord struct {
	Text   string
	Vector []float32
}

// VectorRepository persists embedding vectors keyed by model and text.
type VectorRepository interface {
	// GetVector returns the vector stored for text under model.
	// Returns ErrNotFound if nothing is stored.
	GetVector(ctx context.Context, model, text string) ([]float32, error)

	// PutVector stores vector for text under model, replacing any previous value.
	PutVector(ctx context.Context, model, text string, vector []float32) error

	// DeleteModel removes every vector stored under model and returns the
	// number of records removed.
	DeleteModel(ctx context.Context, model string) (int, error)

	// CountVectors returns the number of vectors stored under model.
	CountVectors(ctx context.Context, model string) (int, error)

	// Texts returns every text with a vector stored under model, in key order.
	Texts(ctx context.Context, model string) ([]string, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
