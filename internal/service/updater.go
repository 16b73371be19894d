package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voyagen/drtvfeed/internal/config"
	"github.com/voyagen/drtvfeed/internal/metrics"
	"github.com/voyagen/drtvfeed/internal/models"
	"github.com/voyagen/drtvfeed/internal/store"
)

// Refresh outcomes recorded in metrics.
const (
	OutcomePublished = "published"
	OutcomeAborted   = "aborted"
	OutcomeFailed    = "failed"
)

// Runner produces the channel mapping for a set of ids. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, ids []string) (models.Channels, error)
}

// Updater runs the pipeline and publishes the result as a Snapshot.
// A failed or empty run leaves the previously published state untouched.
// Overlapping UpdateNow calls are independent: each runs and publishes.
type Updater struct {
	runner  Runner
	store   store.StateStore
	ids     []string
	publish config.Publish
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewUpdater builds an Updater. m and log may be nil.
func NewUpdater(runner Runner, st store.StateStore, ids []string, publish config.Publish, m *metrics.Metrics, log logrus.FieldLogger) *Updater {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Updater{
		runner:  runner,
		store:   st,
		ids:     ids,
		publish: publish,
		metrics: m,
		log:     log.WithField("component", "updater"),
		now:     time.Now,
	}
}

// UpdateNow runs the pipeline once and publishes the snapshot.
func (u *Updater) UpdateNow(ctx context.Context) error {
	start := u.now()
	runID := uuid.NewString()
	log := u.log.WithField("run_id", runID)
	log.Info("Starting DRTV update")

	channels, err := u.runner.Run(ctx, u.ids)
	if err != nil || len(channels) == 0 {
		log.WithError(err).Warn("No data received... Aborting update")
		u.metrics.ObserveRefresh(OutcomeAborted, u.now().Sub(start))
		if err == nil {
			err = ErrNoChannels
		}
		return fmt.Errorf("UpdateNow: %w", err)
	}

	now := u.now()
	snap := models.Snapshot{
		EntityID: u.publish.EntityID,
		State:    now.Format(time.RFC3339),
		Attributes: models.Attributes{
			FriendlyName: u.publish.FriendlyName,
			Icon:         u.publish.Icon,
			Channels:     channels,
		},
		RunID:     runID,
		UpdatedAt: now,
	}
	if err := u.store.Publish(ctx, snap); err != nil {
		log.WithError(err).Error("publish failed")
		u.metrics.ObserveRefresh(OutcomeFailed, u.now().Sub(start))
		return fmt.Errorf("UpdateNow: publish: %w", err)
	}

	u.metrics.ObserveRefresh(OutcomePublished, u.now().Sub(start))
	u.metrics.SetPublished(len(channels), now)
	log.WithField("channels", len(channels)).Info("DRTV update published")
	return nil
}
