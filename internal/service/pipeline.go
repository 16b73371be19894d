// Package service runs the refresh pipeline and publishes its result.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/voyagen/drtvfeed/internal/fetcher"
	"github.com/voyagen/drtvfeed/internal/metrics"
	"github.com/voyagen/drtvfeed/internal/models"
)

// ErrNoChannels is returned when a run produced no channel records.
var ErrNoChannels = errors.New("no channels")

// Source is the provider-facing side of the pipeline. *fetcher.Provider implements it.
type Source interface {
	ResolveFrontPage(ctx context.Context, ids []string) fetcher.Result[fetcher.FrontPage]
	ResolveLiveChannels(ctx context.Context, livePath string, logos map[string]string, ids []string) fetcher.Result[fetcher.LiveChannels]
	FetchSchedule(ctx context.Context, ids []string, now time.Time) fetcher.Result[fetcher.Schedule]
}

// Phase names used for logging and metrics.
const (
	PhaseFrontPage = "front_page"
	PhaseLive      = "live"
	PhaseSchedule  = "schedule"
)

// Pipeline resolves the front page, then the live page, while the schedule
// is fetched concurrently; the two halves meet in Merge.
type Pipeline struct {
	src     Source
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewPipeline builds a Pipeline. m and log may be nil.
func NewPipeline(src Source, m *metrics.Metrics, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		src:     src,
		metrics: m,
		log:     log.WithField("component", "pipeline"),
		now:     time.Now,
	}
}

// Run executes one pipeline invocation for ids. Every call builds fresh
// maps. When no records were produced it returns an empty, non-nil mapping
// and an error wrapping ErrNoChannels.
func (p *Pipeline) Run(ctx context.Context, ids []string) (models.Channels, error) {
	now := p.now()

	var (
		live  fetcher.Result[fetcher.LiveChannels]
		sched fetcher.Result[fetcher.Schedule]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		front := p.src.ResolveFrontPage(gctx, ids)
		p.observe(PhaseFrontPage, front.Status, front.Err)
		if front.Status != fetcher.StatusOK {
			if front.Err != nil {
				return fmt.Errorf("front page: %w", front.Err)
			}
			return errors.New("front page: live path not found")
		}

		live = p.src.ResolveLiveChannels(gctx, front.Value.LivePath, front.Value.Logos, ids)
		p.observe(PhaseLive, live.Status, live.Err)
		if live.Status == fetcher.StatusFailed {
			return fmt.Errorf("live page: %w", live.Err)
		}
		return nil
	})
	g.Go(func() error {
		sched = p.src.FetchSchedule(gctx, ids, now)
		p.observe(PhaseSchedule, sched.Status, sched.Err)
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Channels{}, fmt.Errorf("%w: %w", ErrNoChannels, err)
	}

	records := live.Value.Records
	if len(records) == 0 {
		return models.Channels{}, ErrNoChannels
	}
	return Merge(records, live.Value.Names, sched.Value.Entries, sched.Value.Params), nil
}

func (p *Pipeline) observe(phase string, status fetcher.Status, err error) {
	p.metrics.ObservePhase(phase, status.String())
	entry := p.log.WithFields(logrus.Fields{"phase": phase, "status": status.String()})
	switch status {
	case fetcher.StatusFailed:
		entry.WithError(err).Warn("phase failed")
	case fetcher.StatusEmpty:
		entry.Info("phase returned no data")
	default:
		entry.Debug("phase done")
	}
}
