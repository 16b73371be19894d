package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voyagen/drtvfeed/internal/cache"
	"github.com/voyagen/drtvfeed/internal/scheduler"
	"github.com/voyagen/drtvfeed/internal/server"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "refresh-on-start", true, "run one refresh immediately after startup")
}

func runServe(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		log.WithError(err).Error("startup failed")
		return err
	}
	defer a.close()

	opts := []scheduler.Option{scheduler.WithLocation(cfg.Provider.Location)}
	if a.redis != nil {
		opts = append(opts, scheduler.WithLocker(a.redis, cache.SchedulerLock, func(err error) bool {
			return errors.Is(err, cache.ErrLocked)
		}))
	}
	trigger, err := scheduler.New(cfg.Cron, a.updater, log, opts...)
	if err != nil {
		return err
	}
	trigger.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		trigger.Stop(stopCtx)
	}()

	var refresh server.Refresher
	if a.redis != nil {
		refresh = queueRefresher(a.redis)
		go runRefreshWorker(ctx, a.redis, trigger, log)
	} else {
		refresh = detachedRefresher(ctx, trigger)
	}

	if runOnStart {
		go func() { _ = trigger.UpdateNow(ctx) }()
	}

	srv := server.New(a.store, cfg, refresh, a.metrics, log)
	return srv.ListenAndServe(ctx)
}

// queueRefresher pushes refresh jobs onto the Redis queue for the worker.
func queueRefresher(rds *cache.Redis) server.Refresher {
	return func(ctx context.Context, reason string) (string, error) {
		job := cache.RefreshJob{ID: uuid.NewString(), Reason: reason, RequestedAt: time.Now().UTC()}
		if err := cache.Enqueue(ctx, rds, cache.DefaultQueue, job); err != nil {
			return "", err
		}
		return job.ID, nil
	}
}

// detachedRefresher runs the refresh in a goroutine bound to the server
// lifetime rather than the request.
func detachedRefresher(ctx context.Context, trigger *scheduler.Trigger) server.Refresher {
	return func(_ context.Context, reason string) (string, error) {
		id := uuid.NewString()
		go func() {
			log.WithFields(logrus.Fields{"job_id": id, "reason": reason}).Info("manual refresh started")
			_ = trigger.UpdateNow(ctx)
		}()
		return id, nil
	}
}

// runRefreshWorker dequeues refresh jobs from Redis until ctx is cancelled.
func runRefreshWorker(ctx context.Context, rds *cache.Redis, trigger *scheduler.Trigger, log logrus.FieldLogger) {
	log = log.WithField("component", "worker")
	log.Info("refresh worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("refresh worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.WithError(err).Warn("dequeue error")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.WithFields(logrus.Fields{"job_id": job.ID, "reason": job.Reason}).Info("processing refresh job")
		_ = trigger.UpdateNow(ctx)
	}
}
