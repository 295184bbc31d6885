package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/aikernel/registry"
)

// target is a single resolvable entry.
type target struct {
	capability registry.Capability
	name       string
}

// targets lists every named entry plus anonymous defaults.
func (k *Kernel) targets() []target {
	var out []target
	for _, c := range k.services.Capabilities() {
		for name := range k.services.ListNames(c) {
			out = append(out, target{capability: c, name: name})
		}
		if name, ok := k.services.DefaultName(c); ok && name == "" {
			out = append(out, target{capability: c})
		}
	}
	return out
}

// Preload resolves every registered service on a pool of workers so
// construction failures surface before first use. The instances are
// discarded unless their factories memoize them. Failures are joined.
func (k *Kernel) Preload(ctx context.Context, workers int) error {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, t := range k.targets() {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if _, err := k.services.Resolve(t.capability, t.name); err != nil {
				k.logger.Warn("service construction failed", "capability", t.capability, "name", t.name, "err", err)
				record(fmt.Errorf("%s %q: %w", t.capability, t.name, err))
			}
		})
		if submitErr != nil {
			wg.Done()
			record(submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		record(err)
	}
	return errors.Join(errs...)
}
