package airtable

import (
	"context"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/sirupsen/logrus"
)

// Dispatcher owns the background sync cadence and ad hoc triggers. With
// Pub/Sub configured, triggers are published and a push endpoint runs them;
// without it, runs happen in-process.
type Dispatcher struct {
	Runner   *Runner
	Logger   *logrus.Logger
	Interval time.Duration
}

func NewDispatcher(runner *Runner, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		Runner:   runner,
		Logger:   logger,
		Interval: config.SyncInterval(),
	}
}

// Trigger requests one run of kind without waiting for it. Unknown kinds are
// logged and dropped; duplicate triggers are absorbed by the run guard.
func (d *Dispatcher) Trigger(kind string) {
	if !d.Runner.HasKind(kind) {
		d.Logger.WithFields(logrus.Fields{"kind": kind}).Warn("sync trigger for unknown kind dropped")
		return
	}

	if config.PubSubEnabled() {
		err := config.PublishSyncTrigger(config.SyncTriggerMessage{
			Kind:        kind,
			RequestedAt: time.Now().UTC(),
		})
		if err == nil {
			return
		}
		config.LogError(d.Logger, "airtable", "Trigger", kind, nil, err)
		// Fall through and run locally rather than losing the trigger.
	}

	go func() {
		_ = d.Runner.Run(context.Background(), kind)
	}()
}

// RunNow executes one run synchronously. Used by the Pub/Sub push endpoint
// and the admin trigger route.
func (d *Dispatcher) RunNow(ctx context.Context, kind string) error {
	return d.Runner.Run(ctx, kind)
}

// Start loops every kind on the shared interval until ctx is cancelled.
// Intended to run in its own goroutine from main.
func (d *Dispatcher) Start(ctx context.Context) {
	d.Logger.WithFields(logrus.Fields{
		"interval": d.Interval.String(),
		"kinds":    d.Runner.Kinds(),
	}).Info("sync scheduler started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.runAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.Interval):
		}
	}
}

func (d *Dispatcher) runAll(ctx context.Context) {
	for _, kind := range d.Runner.Kinds() {
		if err := d.Runner.Run(ctx, kind); err != nil {
			config.LogError(d.Logger, "airtable", "runAll", kind, nil, err)
		}
	}
}
