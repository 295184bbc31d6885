package registry

import "sync"

// Memoize wraps factory so the first successful construction is reused by
// every later call. A failed construction is not cached and will be retried.
func Memoize(factory Factory) Factory {
	var (
		mu       sync.Mutex
		instance any
		built    bool
	)
	return func() (any, error) {
		mu.Lock()
		defer mu.Unlock()
		if built {
			return instance, nil
		}
		v, err := factory()
		if err != nil {
			return nil, err
		}
		instance, built = v, true
		return instance, nil
	}
}
