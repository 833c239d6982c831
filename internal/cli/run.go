package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/config"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/phase"
	"github.com/vampirenirmal/outliner/internal/phase/outline"
	"github.com/vampirenirmal/outliner/internal/storage"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

const metricsShutdownTimeout = 5 * time.Second

type runFunc func(ctx context.Context, p *core.Pipeline) (*core.Run, error)

// openStorage returns the configured snapshot backend and a func that
// releases it.
func (a *App) openStorage(ctx context.Context) (storage.Storage, func(), error) {
	out := a.cfg.Output
	if out.Backend != config.BackendRedis {
		return storage.NewFileSystem(out.Dir), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     out.Redis.Addr,
		Password: out.Redis.Password,
		DB:       out.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", out.Redis.Addr, err)
	}
	release := func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("closing redis client", "error", err)
		}
	}
	return storage.NewRedisStore(client, out.Redis.Prefix), release, nil
}

// storyPath is what the user passes back to resume or show.
func (a *App) storyPath(dir string) string {
	if a.cfg.Output.Backend == config.BackendRedis {
		return dir
	}
	return filepath.Join(a.cfg.Output.Dir, dir)
}

// storyDir maps a user supplied story path to a directory relative to the
// storage root. Absolute paths must live under the output dir.
func (a *App) storyDir(arg string) (string, error) {
	if a.cfg.Output.Backend == config.BackendRedis || !filepath.IsAbs(arg) {
		return filepath.ToSlash(filepath.Clean(arg)), nil
	}
	rel, err := filepath.Rel(a.cfg.Output.Dir, arg)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("story %s is not under the output directory %s", arg, a.cfg.Output.Dir)
	}
	return filepath.ToSlash(rel), nil
}

// run wires a pipeline from the configuration and executes fn with it. A
// metrics endpoint, when configured, serves alongside the run and is shut
// down once the run ends.
func (a *App) run(ctx context.Context, fn runFunc) error {
	cfg := a.cfg

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.TracingSettings())
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("flushing traces", "error", err)
		}
	}()

	store, release, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer release()

	metrics := telemetry.NewMetrics()
	tracer := telemetry.Tracer()
	snapshots := storage.NewSnapshotStore(store, cfg.SnapshotFormat(), cfg.Output.Consolidate)
	calls := storage.NewCallLog(store)

	gen := phase.NewGenerator(a.NewTransport(cfg, a.logger),
		phase.WithRetryBudgets(cfg.Retries.InvalidOutput, cfg.Retries.EmptyOutput),
		phase.WithRecorder(calls),
		phase.WithMetrics(metrics),
		phase.WithTracer(tracer),
		phase.WithLogger(a.logger.With("component", "generator")),
	)
	outliner := outline.New(gen, agent.DefaultPrompts(), outline.Settings{
		Style:            cfg.StoryStyle(),
		ChapterMinimum:   cfg.Story.ChapterMinimum,
		SceneMinimum:     cfg.Story.SceneMinimum,
		StoryBeatMinimum: cfg.Story.StoryBeatMinimum,
		SceneAttempts:    cfg.Retries.ScenesPerChapter,
		ReviseGeneral:    cfg.Story.ReviseGeneral,
	},
		outline.WithCallSettings(cfg.CallSettings),
		outline.WithMetrics(metrics),
		outline.WithLogger(a.logger.With("component", "outline")),
	)
	pipeline := core.NewPipeline(outliner.Seeder(), outliner.Stages(), snapshots, calls,
		core.WithLogger(a.logger.With("component", "pipeline")),
		core.WithMetrics(metrics),
		core.WithTracer(tracer),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, finish := context.WithCancel(gctx)
	defer finish()

	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var result *core.Run
	g.Go(func() error {
		defer finish()
		var err error
		result, err = fn(runCtx, pipeline)
		return err
	})
	err = g.Wait()

	if result != nil && result.Dir != "" {
		if err != nil {
			a.logger.Info("progress saved, continue with resume", "story", a.storyPath(result.Dir))
		} else {
			fmt.Fprintln(a.Out, a.storyPath(result.Dir))
		}
	}
	if err != nil && core.IsFatal(err) {
		return NewExitError(ExitStageFailure, err)
	}
	return err
}
