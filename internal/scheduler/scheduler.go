// Package scheduler triggers refreshes on a cron schedule and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultLockTTL bounds how long a scheduled run may hold the lock.
const DefaultLockTTL = 5 * time.Minute

// ErrLocked is what a Locker returns when another replica holds the lock.
var ErrLocked = errors.New("scheduler: lock held elsewhere")

// Runner performs one refresh. *service.Updater implements it.
type Runner interface {
	UpdateNow(ctx context.Context) error
}

// Locker provides a best-effort distributed lock. *cache.Redis implements it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Trigger wires a Runner to a cron expression. Scheduled and UpdateNow have
// the same effect; Scheduled additionally takes the lock when one is set.
type Trigger struct {
	runner  Runner
	cron    *cron.Cron
	spec    string
	entry   cron.EntryID
	locker  Locker
	lockKey string
	lockTTL time.Duration
	isHeld  func(error) bool
	log     logrus.FieldLogger
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithLocker makes scheduled runs take key before running. isHeld reports
// whether an error from TryLock means the lock is held by someone else.
func WithLocker(l Locker, key string, isHeld func(error) bool) Option {
	return func(t *Trigger) {
		t.locker = l
		t.lockKey = key
		if isHeld != nil {
			t.isHeld = isHeld
		}
	}
}

// WithLocation evaluates the cron expression in loc.
func WithLocation(loc *time.Location) Option {
	return func(t *Trigger) {
		if loc != nil {
			t.cron = cron.New(cron.WithLocation(loc))
		}
	}
}

// New parses spec (standard five-field cron) and returns a stopped Trigger.
func New(spec string, runner Runner, log logrus.FieldLogger, opts ...Option) (*Trigger, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Trigger{
		runner:  runner,
		cron:    cron.New(),
		spec:    spec,
		lockTTL: DefaultLockTTL,
		isHeld:  func(err error) bool { return errors.Is(err, ErrLocked) },
		log:     log.WithField("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	id, err := t.cron.AddFunc(spec, func() { _ = t.Scheduled(t.ctx) })
	if err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	t.entry = id
	return t, nil
}

// Start begins firing the cron schedule in the background.
func (t *Trigger) Start() {
	t.cron.Start()
	t.log.WithFields(logrus.Fields{"cron": t.spec, "next": t.Next()}).Info("scheduler started")
}

// Stop halts the schedule, cancels an in-flight scheduled run and waits for
// it to return or for ctx to end.
func (t *Trigger) Stop(ctx context.Context) {
	done := t.cron.Stop()
	t.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next returns when the schedule fires next. Zero before Start.
func (t *Trigger) Next() time.Time {
	return t.cron.Entry(t.entry).Next
}

// Scheduled is the cron-driven entry point.
func (t *Trigger) Scheduled(ctx context.Context) error {
	if t.locker != nil {
		unlock, err := t.locker.TryLock(ctx, t.lockKey, t.lockTTL)
		if err != nil {
			if t.isHeld(err) {
				t.log.WithField("lock", t.lockKey).Info("scheduled refresh skipped, lock held")
				return nil
			}
			t.log.WithError(err).Warn("scheduler lock unavailable, running anyway")
		} else {
			defer unlock()
		}
	}
	return t.run(ctx, "scheduled")
}

// UpdateNow is the manual entry point.
func (t *Trigger) UpdateNow(ctx context.Context) error {
	return t.run(ctx, "manual")
}

func (t *Trigger) run(ctx context.Context, source string) error {
	log := t.log.WithField("trigger", source)
	log.Debug("refresh triggered")
	if err := t.runner.UpdateNow(ctx); err != nil {
		log.WithError(err).Warn("refresh did not publish")
		return err
	}
	return nil
}
