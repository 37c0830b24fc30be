package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/usecase/distribution"
)

type Distributor interface {
	RunCycle(ctx context.Context) (*distribution.CycleStats, error)
}

type Monitor interface {
	RenotifyPending(ctx context.Context) (int, error)
}

type Resolver interface {
	ExpirePayouts(ctx context.Context) (int, error)
	ResolveExpiredDisputes(ctx context.Context) (int, error)
}

type Intervals struct {
	Distribution time.Duration
	Monitor      time.Duration
	Expire       time.Duration
	Disputes     time.Duration
}

type BackgroundTasks struct {
	Distributor Distributor
	Monitor     Monitor
	Resolver    Resolver
	Intervals   Intervals
	Logger      *slog.Logger

	wg sync.WaitGroup
}

func NewBackgroundTasks(distributor Distributor, monitor Monitor, resolver Resolver, intervals Intervals, logger *slog.Logger) *BackgroundTasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundTasks{
		Distributor: distributor,
		Monitor:     monitor,
		Resolver:    resolver,
		Intervals:   intervals,
		Logger:      logger.With("component", "background"),
	}
}

// StartAll запускает воркеры; каждый работает в своей горутине до отмены ctx
func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.start(ctx, "distribution", bt.Intervals.Distribution, bt.runDistribution)
	bt.start(ctx, "monitor", bt.Intervals.Monitor, bt.runMonitor)
	bt.start(ctx, "expire", bt.Intervals.Expire, bt.runExpire)
	bt.start(ctx, "disputes", bt.Intervals.Disputes, bt.runDisputes)
}

// Wait ждёт завершения текущих итераций после отмены контекста
func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

func (bt *BackgroundTasks) start(ctx context.Context, name string, interval time.Duration, run func(ctx context.Context)) {
	if interval <= 0 {
		bt.Logger.Warn("worker disabled", "worker", name)
		return
	}
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run(ctx)
			}
		}
	}()
}

func (bt *BackgroundTasks) runDistribution(ctx context.Context) {
	stats, err := bt.Distributor.RunCycle(ctx)
	if errors.Is(err, distribution.ErrCycleInProgress) {
		return
	}
	if err != nil {
		bt.Logger.Error("distribution cycle failed", "error", err)
		return
	}
	if stats != nil && stats.Assigned > 0 {
		bt.Logger.Info("distribution cycle done",
			"assigned", stats.Assigned,
			"deferred", stats.Deferred,
			"failed", stats.Failed,
			"duration_ms", stats.DurationMs)
	}
}

func (bt *BackgroundTasks) runMonitor(ctx context.Context) {
	n, err := bt.Monitor.RenotifyPending(ctx)
	if err != nil {
		bt.Logger.Error("renotify failed", "error", err)
		return
	}
	if n > 0 {
		bt.Logger.Info("traders renotified", "count", n)
	}
}

func (bt *BackgroundTasks) runExpire(ctx context.Context) {
	n, err := bt.Resolver.ExpirePayouts(ctx)
	if err != nil {
		bt.Logger.Error("payout expiration failed", "error", err)
		return
	}
	if n > 0 {
		bt.Logger.Info("payouts expired", "count", n)
	}
}

func (bt *BackgroundTasks) runDisputes(ctx context.Context) {
	n, err := bt.Resolver.ResolveExpiredDisputes(ctx)
	if err != nil {
		bt.Logger.Error("dispute auto-resolution failed", "error", err)
		return
	}
	if n > 0 {
		bt.Logger.Info("disputes auto-resolved", "count", n)
	}
}
