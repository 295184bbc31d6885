package main

import (
	"fmt"

	"github.com/poiesic/aikernel"
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/cache"
	"github.com/poiesic/aikernel/reembed"
	"github.com/poiesic/aikernel/storage/badger"
	"github.com/urfave/cli/v2"
)

func cacheCommand(serviceFlag cli.Flag) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the embedding cache",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Count cached vectors per model",
				ArgsUsage: "MODEL...",
				Action:    cacheStatsCommand,
			},
			{
				Name:      "clear",
				Usage:     "Delete every cached vector of a model",
				ArgsUsage: "MODEL",
				Action:    cacheClearCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed the texts cached under one model into another",
				Action: cacheReembedCommand,
				Flags: []cli.Flag{
					serviceFlag,
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Model whose cached texts are re-embedded",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Target model (defaults to the service's cache model)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Texts per embedding request",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Attempts per embedding request",
						Value: 3,
					},
					&cli.BoolFlag{
						Name:  "no-normalize",
						Usage: "Store vectors as returned by the service",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete the source model afterwards",
					},
				},
			},
		},
	}
}

func openCache(c *cli.Context) (*aikernel.Runtime, *badger.VectorStore, error) {
	rt, err := openRuntime(c)
	if err != nil {
		return nil, nil, err
	}
	store := rt.VectorStore()
	if store == nil {
		rt.Close()
		return nil, nil, fmt.Errorf("no cache_dir in the configuration")
	}
	return rt, store, nil
}

func cacheStatsCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one model is required")
	}
	rt, store, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, model := range c.Args().Slice() {
		count, err := store.CountVectors(c.Context, model)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d\n", model, count)
	}
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one model is required")
	}
	rt, store, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	deleted, err := store.DeleteModel(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d vectors\n", deleted)
	return nil
}

func cacheReembedCommand(c *cli.Context) error {
	rt, store, err := openCache(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Kernel().Embedding(c.String("service"))
	if err != nil {
		return err
	}
	to := c.String("to")
	var embedder ai.EmbeddingService = svc
	if cached, ok := svc.(*cache.Embedder); ok {
		embedder = cached.Unwrap()
		if to == "" {
			to = cached.Model()
		}
	}
	if to == "" {
		return fmt.Errorf("--to is required when the service is not cached")
	}

	cfg := reembed.DefaultConfig()
	cfg.BatchSize = c.Int("batch-size")
	cfg.MaxRetries = c.Int("max-retries")
	cfg.Normalize = !c.Bool("no-normalize")

	from := c.String("from")
	n, err := reembed.NewReembedder(store, embedder, cfg, c.App.ErrWriter).Run(c.Context, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "reembedded %d texts from %s to %s\n", n, from, to)

	if c.Bool("prune") && from != to {
		deleted, err := store.DeleteModel(c.Context, from)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d vectors of %s\n", deleted, from)
	}
	return nil
}
