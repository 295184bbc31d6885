package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/storage"
)

// SimilarText is a FindSimilar hit.
type SimilarText struct {
	Text  string
	Score float32
}

// VectorStore implements storage.VectorRepository and ai.VectorCache on
// BadgerDB.
type VectorStore struct {
	backend *Backend
	owned   bool
}

var (
	_ storage.VectorRepository = (*VectorStore)(nil)
	_ ai.VectorCache           = (*VectorStore)(nil)
)

// NewVectorStore opens a persistent vector store rooted at dir.
// The returned store owns its backend and closes it on Close.
func NewVectorStore(dir string) (*VectorStore, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return &VectorStore{backend: backend, owned: true}, nil
}

// NewVectorStoreWithBackend creates a store over a shared backend.
// Close on the store leaves the backend open.
func NewVectorStoreWithBackend(backend *Backend) *VectorStore {
	return &VectorStore{backend: backend}
}

func (s *VectorStore) checkOpen() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// GetVector returns the vector for text under model.
// Returns storage.ErrNotFound if nothing is stored or the stored record
// belongs to a different text with the same hash.
func (s *VectorStore) GetVector(ctx context.Context, model, text string) ([]float32, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var record *storage.VectorRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(model, text))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalVectorRecord(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	if record.Text != text {
		s.backend.logger.Debug("vector key collision", "model", model)
		return nil, storage.ErrNotFound
	}
	return record.Vector, nil
}

// PutVector stores vector for text under model.
func (s *VectorStore) PutVector(ctx context.Context, model, text string, vector []float32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	value := storage.MarshalVectorRecord(&storage.VectorRecord{Text: text, Vector: vector})
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorKey(model, text), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteModel removes every vector stored under model.
func (s *VectorStore) DeleteModel(ctx context.Context, model string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	keys, err := s.modelKeys(model)
	if err != nil {
		return 0, err
	}

	wb := s.backend.db.NewWriteBatch()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			wb.Cancel()
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// CountVectors returns the number of vectors stored under model.
func (s *VectorStore) CountVectors(ctx context.Context, model string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	keys, err := s.modelKeys(model)
	return len(keys), err
}

// Texts returns the texts cached under model, in key order.
func (s *VectorStore) Texts(ctx context.Context, model string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var texts []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeModelPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !ownsKey(opts.Prefix, iter.Item().Key()) {
				continue
			}
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalVectorRecord(val)
				if err != nil {
					return err
				}
				texts = append(texts, record.Text)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return texts, nil
}

func (s *VectorStore) modelKeys(model string) ([][]byte, error) {
	var keys [][]byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeModelPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if !ownsKey(opts.Prefix, iter.Item().Key()) {
				continue
			}
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	return keys, err
}

// FindSimilar returns cached texts of model whose vectors score at least
// minSimilarity against vector, best first, at most limit results.
// Scores are dot products, which equal cosine similarity for normalized vectors.
func (s *VectorStore) FindSimilar(ctx context.Context, model string, vector []float32, minSimilarity float32, limit int) ([]SimilarText, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var results []SimilarText

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeModelPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !ownsKey(opts.Prefix, iter.Item().Key()) {
				continue
			}
			var record *storage.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}

			similarity := dotProduct(vector, record.Vector)
			if similarity >= minSimilarity {
				results = append(results, SimilarText{Text: record.Text, Score: similarity})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b SimilarText) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Lookup implements ai.VectorCache.
func (s *VectorStore) Lookup(ctx context.Context, model, text string) ([]float32, bool, error) {
	vec, err := s.GetVector(ctx, model, text)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Store implements ai.VectorCache.
func (s *VectorStore) Store(ctx context.Context, model, text string, vector []float32) error {
	return s.PutVector(ctx, model, text, vector)
}

// Close closes the backend if the store owns it.
func (s *VectorStore) Close() error {
	if !s.owned || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
