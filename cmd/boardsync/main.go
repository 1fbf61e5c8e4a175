// Command boardsync mirrors a contest leaderboard into a CSV file and a JSON
// metadata sidecar, refreshing them on a fixed interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/boardsync/internal/adapters/http/api"
	"github.com/okian/boardsync/internal/adapters/http/swagger"
	"github.com/okian/boardsync/internal/adapters/sink"
	"github.com/okian/boardsync/internal/adapters/source"
	"github.com/okian/boardsync/internal/app"
	"github.com/okian/boardsync/internal/config"
	"github.com/okian/boardsync/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// errCycleFailed makes `once` exit non-zero; the cycle already logged why.
var errCycleFailed = errors.New("export cycle failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCycleFailed) {
			fmt.Fprintln(os.Stderr, "boardsync:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "boardsync",
		Short:         "Mirror a contest leaderboard into CSV and JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $BOARDSYNC_CONFIG)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Export now and then every interval until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProcess(cmd.Context(), configPath, runScheduler)
			},
		},
		&cobra.Command{
			Use:   "once",
			Short: "Run a single export cycle; exits 1 if it fails",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProcess(cmd.Context(), configPath, runOnce)
			},
		},
	)
	return root
}

// process bundles the wired components for one process.
type process struct {
	cfg      *config.Config
	log      logger.Logger
	exporter *app.Exporter
}

// withProcess loads configuration, initialises logging and wires the
// exporter before handing over to fn.
func withProcess(parent context.Context, configPath string, fn func(context.Context, *process) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFile(cfg.LogFile)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() {
		_ = logger.Sync()
		_ = logger.Close()
	}()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	return fn(ctx, &process{cfg: cfg, log: log, exporter: newExporter(cfg)})
}

func newExporter(cfg *config.Config) *app.Exporter {
	opts := []source.Option{
		source.WithBaseURL(cfg.BaseURL),
		source.WithTimeout(cfg.RequestTimeout()),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, source.WithUserAgent(cfg.UserAgent))
	}

	return app.NewExporter(
		source.New(cfg.ContestSlug, opts...),
		sink.NewFileSink(cfg.OutputFile, cfg.MetadataFile),
		app.WithContest(cfg.ContestSlug),
		app.WithPageSize(cfg.PageSize),
		app.WithPageDelay(cfg.PageDelay()),
	)
}

func runOnce(ctx context.Context, p *process) error {
	if !p.exporter.RunCycle(ctx) {
		return errCycleFailed
	}
	return nil
}

func runScheduler(ctx context.Context, p *process) error {
	p.log.Info(ctx, "starting leaderboard automation",
		logger.String("contest", p.cfg.ContestSlug),
		logger.Duration("interval", p.cfg.Interval()),
		logger.String("output", p.cfg.OutputFile),
	)

	sched := app.NewScheduler(p.exporter, p.cfg.Interval())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if p.cfg.MetricsAddr != "" {
		srv := newStatusServer(p.cfg, statusDeps{Exporter: p.exporter, sched: sched})
		g.Go(func() error {
			p.log.Info(gctx, "starting status server", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				p.log.Error(gctx, "status server shutdown failed", logger.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	p.log.Info(ctx, "automation stopped")
	return err
}

// statusDeps serves reads from the exporter and stats from the scheduler,
// which folds in the exporter's own.
type statusDeps struct {
	*app.Exporter
	sched *app.Scheduler
}

func (d statusDeps) GetStats() map[string]interface{} {
	return d.sched.GetStats()
}

func newStatusServer(cfg *config.Config, deps api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(deps, cfg.MaxLeaderboardLimit).Register(mux)

	return &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
