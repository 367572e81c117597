package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpctrl "github.com/secmon-lab/meetlink/pkg/controller/http"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/worker"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/secmon-lab/meetlink/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var cfg syncConfig
	var addr string
	var apiToken string
	var interval time.Duration
	var lookback time.Duration

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MEETLINK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-token",
			Usage:       "Bearer token required by the /api endpoints. No authentication when empty",
			Category:    "Authentication",
			Sources:     cli.EnvVars("MEETLINK_API_TOKEN"),
			Destination: &apiToken,
		},
		&cli.DurationFlag{
			Name:        "sync-interval",
			Usage:       "Interval of scheduled syncs. Scheduled sync is disabled when zero",
			Category:    "Worker",
			Value:       15 * time.Minute,
			Sources:     cli.EnvVars("MEETLINK_SYNC_INTERVAL"),
			Destination: &interval,
		},
		&cli.DurationFlag{
			Name:        "sync-lookback",
			Usage:       "Window of meetings fetched by each scheduled sync",
			Category:    "Worker",
			Value:       defaultSyncWindow,
			Sources:     cli.EnvVars("MEETLINK_SYNC_LOOKBACK"),
			Destination: &lookback,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run scheduled syncs and serve the review API",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			syncMetrics, err := metrics.NewSync(registry)
			if err != nil {
				return goerr.Wrap(err, "failed to register metrics")
			}

			uc, cleanup, err := cfg.build(ctx, usecase.WithMetrics(syncMetrics))
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var syncWorker *worker.SyncWorker
			if interval > 0 {
				syncWorker, err = worker.NewSyncWorker(scheduledSync(uc.Sync), interval, lookback)
				if err != nil {
					return goerr.Wrap(err, "failed to create sync worker")
				}
			} else {
				logging.Default().Info("Scheduled sync disabled")
			}

			opts := []httpctrl.Options{
				httpctrl.WithReview(uc.Review),
				httpctrl.WithSync(uc.Sync),
				httpctrl.WithMetrics(registry),
			}
			if apiToken != "" {
				opts = append(opts, httpctrl.WithAPIToken(apiToken))
			} else {
				logging.Default().Warn("API token not configured, /api is unauthenticated")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(opts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			if syncWorker != nil {
				if err := syncWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start sync worker")
				}
			}

			eg.Go(func() error {
				<-ctx.Done()
				logging.Default().Info("Shutting down")

				if syncWorker != nil {
					syncWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}

// scheduledSync adapts the sync use case to the worker. An overlapping run is skipped.
func scheduledSync(uc *usecase.SyncUseCase) worker.SyncFunc {
	return func(ctx context.Context, since time.Time) error {
		stats, err := uc.Sync(ctx, usecase.SyncInput{
			SyncType: types.SyncTypeScheduled,
			Since:    since,
		})
		if errors.Is(err, usecase.ErrSyncInProgress) {
			logging.From(ctx).Info("Scheduled sync skipped, another run holds the lock")
			return nil
		}
		if err != nil {
			return err
		}

		logging.From(ctx).Info("Scheduled sync completed",
			"processed", stats.MeetingsProcessed,
			"new", stats.MeetingsNew,
			"contacts_created", stats.ContactsCreated,
			"needs_review", stats.NeedsReviewCount,
		)
		return nil
	}
}
