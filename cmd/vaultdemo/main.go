// Command vaultdemo exercises a Vault under concurrent load: staged
// fill, random-index mutation, contended deallocation, predicate-based
// draining and sparse refill, with expected totals checked after every
// stage.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vault"
)

type element struct {
	Counter int
	Tag     string
}

type config struct {
	capacity   int
	workers    int
	modifyIter int
	pace       time.Duration
	dump       bool
	jsonLog    bool
	verbose    bool
}

func main() {
	cfg := parseFlags()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	var logger *vault.Logger
	if cfg.jsonLog {
		logger = vault.NewJSONLogger(level)
	} else {
		logger = vault.NewTextLogger(level)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config

	pflag.IntVar(&cfg.capacity, "capacity", vault.DefaultCapacity, "number of slots in the pool")
	pflag.IntVar(&cfg.workers, "workers", 8, "number of concurrent workers per stage")
	pflag.IntVar(&cfg.modifyIter, "modify-iters", 200, "random-index mutations per worker")
	pflag.DurationVar(&cfg.pace, "pace", 10*time.Nanosecond, "delay budget between operations per worker (0 disables pacing)")
	pflag.BoolVar(&cfg.dump, "dump", false, "print the full pool contents after fill stages")
	pflag.BoolVar(&cfg.jsonLog, "json", false, "log in JSON format")
	pflag.BoolVarP(&cfg.verbose, "verbose", "v", false, "log at debug level")
	pflag.Parse()

	return cfg
}

func run(ctx context.Context, cfg config, logger *vault.Logger) error {
	if cfg.workers <= 0 || cfg.capacity%cfg.workers != 0 {
		return fmt.Errorf("capacity %d must be divisible by workers %d", cfg.capacity, cfg.workers)
	}

	v, err := vault.New[element](cfg.capacity, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Info("pool created", "capacity", cfg.capacity, "workers", cfg.workers)

	// Stage 1: concurrent fill until the pool is full.
	if err := fill(ctx, cfg, v, cfg.capacity/cfg.workers, ""); err != nil {
		return err
	}
	logger.Info("fill completed", "occupied", v.Len())
	dump(cfg, v)

	// Stage 2: concurrent multi-field mutation at random indices.
	if err := modify(ctx, cfg, v); err != nil {
		return err
	}
	dump(cfg, v)

	var total int
	v.ForEach(func(index int, data element) {
		total += data.Counter
	})
	logger.Info("modify completed",
		"total_modifications", total,
		"expected", cfg.workers*cfg.modifyIter,
	)

	// Stage 3: contended index deallocation. Every worker walks every
	// index, so each slot sees several competing frees; exactly one wins.
	freed, err := drainByIndex(ctx, cfg, v)
	if err != nil {
		return err
	}
	logger.Info("deallocate completed",
		"total_deallocations", freed,
		"expected", cfg.capacity,
	)

	// Stage 4: refill, then drain one worker's elements by tag prefix
	// from all workers at once (high collision rate on the match).
	if err := fill(ctx, cfg, v, cfg.capacity/cfg.workers, ""); err != nil {
		return err
	}
	drained, err := drainByPredicate(ctx, cfg, v, "2_")
	if err != nil {
		return err
	}
	logger.Info("predicate drain completed",
		"total_deallocations", drained,
		"expected", cfg.capacity/cfg.workers,
	)

	// Stage 5: sparse refill into the holes the drain left behind.
	if err := fill(ctx, cfg, v, int(drained)/cfg.workers, "additional "); err != nil {
		return err
	}
	dump(cfg, v)

	stats := v.Stats()
	logger.Info("demo completed",
		"occupied", stats.Occupied,
		"allocations", stats.Allocations,
		"releases", stats.Releases,
		"capacity_failures", stats.CapacityFailures,
		"occupied_set_cardinality", v.OccupiedSet().GetCardinality(),
	)

	return nil
}

// fill allocates perWorker slots from each worker, tagging every element
// with the worker id and a sequence number.
func fill(ctx context.Context, cfg config, v *vault.Vault[element], perWorker int, prefix string) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		worker := w
		limiter := pacer(cfg.pace)
		g.Go(func() error {
			for n := 0; n < perWorker; n++ {
				ev, err := v.Allocate()
				if err != nil {
					return fmt.Errorf("worker %d: %w", worker+1, err)
				}
				ev.Data().Tag = fmt.Sprintf("%s%d_%d", prefix, worker+1, n+1)
				ev.Data().Counter = 0
				ev.Close()

				if err := wait(ctx, limiter); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// modify has every worker repeatedly pick a random occupied index and
// mutate both fields under a single view.
func modify(ctx context.Context, cfg config, v *vault.Vault[element]) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		worker := w
		limiter := pacer(cfg.pace)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for k := 0; k < cfg.modifyIter; k++ {
				ev, err := v.View(rng.Intn(cfg.capacity))
				if err != nil {
					return fmt.Errorf("worker %d: %w", worker+1, err)
				}
				ev.Data().Counter++
				ev.Data().Tag = fmt.Sprintf("%s_%d", ev.Data().Tag, worker+1)
				ev.Close()

				if err := wait(ctx, limiter); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func drainByIndex(ctx context.Context, cfg config, v *vault.Vault[element]) (int64, error) {
	var freed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		limiter := pacer(cfg.pace)
		g.Go(func() error {
			for index := 0; index < cfg.capacity; index++ {
				ok, err := v.Deallocate(index)
				if err != nil {
					return err
				}
				if ok {
					freed.Add(1)
				}

				if err := wait(ctx, limiter); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return freed.Load(), nil
}

func drainByPredicate(ctx context.Context, cfg config, v *vault.Vault[element], prefix string) (int64, error) {
	pred := func(data element) bool {
		return len(data.Tag) >= len(prefix) && data.Tag[:len(prefix)] == prefix
	}

	var drained atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		limiter := pacer(cfg.pace)
		g.Go(func() error {
			for v.DeallocateFunc(pred) {
				drained.Add(1)

				if err := wait(ctx, limiter); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return drained.Load(), nil
}

func dump(cfg config, v *vault.Vault[element]) {
	if !cfg.dump {
		return
	}
	v.ForEach(func(index int, data element) {
		fmt.Printf("%d %s %d\n", index, data.Tag, data.Counter)
	})
}

func pacer(pace time.Duration) *rate.Limiter {
	if pace <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(pace), 1)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
