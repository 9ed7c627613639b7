package airtable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("reboot-backend/airtable")

// MarkPolicy decides which attempted records get their synced_at stamp.
type MarkPolicy int

const (
	// MarkAttempted stamps every record the run touched, success or not, in
	// one bulk update after the batch. A record whose remote side keeps
	// failing drops to the back of the staleness queue instead of
	// hot-looping, at the cost of slower retry for genuinely transient
	// failures.
	MarkAttempted MarkPolicy = iota
	// MarkOnSuccess stamps only records that made it through, individually
	// inside the loop. Failed records keep their old stamp and resurface on
	// the next run.
	MarkOnSuccess
)

// SyncTarget is one local row ready to push: its id pointer pair plus the
// already-mapped remote fields.
type SyncTarget struct {
	LocalID    int
	ExternalID string
	Fields     map[string]interface{}
}

// EntitySync is the capability set for one sync kind. Push kinds supply
// SelectBatch/SetExternalID/MarkSynced; pull kinds supply Pull and own their
// whole run.
type EntitySync struct {
	Kind  string
	Table func() string
	Quota int
	Mark  MarkPolicy

	SelectBatch   func(ctx context.Context, limit int) ([]SyncTarget, error)
	SetExternalID func(ctx context.Context, localID int, externalID *string) error
	MarkSynced    func(ctx context.Context, localIDs []int, at time.Time) error

	Pull func(ctx context.Context, client RecordClient, table string) error
}

type Runner struct {
	client RecordClient
	guard  *RunGuard
	logger *logrus.Logger
	kinds  map[string]*EntitySync
}

func NewRunner(client RecordClient, guard *RunGuard, logger *logrus.Logger, kinds []*EntitySync) *Runner {
	byKind := make(map[string]*EntitySync, len(kinds))
	for _, es := range kinds {
		byKind[es.Kind] = es
	}
	return &Runner{
		client: client,
		guard:  guard,
		logger: logger,
		kinds:  byKind,
	}
}

func (r *Runner) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	return names
}

func (r *Runner) HasKind(kind string) bool {
	_, ok := r.kinds[kind]
	return ok
}

// Run executes one sync run of the given kind. A run already in flight makes
// this a no-op. Per-record failures are logged and contained; only systemic
// failures (unknown kind, batch selection, pull) reach the caller.
func (r *Runner) Run(ctx context.Context, kind string) error {
	es, ok := r.kinds[kind]
	if !ok {
		return fmt.Errorf("unknown sync kind %q", kind)
	}

	release, ok := r.guard.Acquire(ctx, kind)
	if !ok {
		return nil
	}
	defer release()

	ctx, span := tracer.Start(ctx, "airtable.sync",
		trace.WithAttributes(attribute.String("sync.kind", kind)))
	defer span.End()

	table := es.Table()
	started := time.Now()

	if es.Pull != nil {
		if err := es.Pull(ctx, r.client, table); err != nil {
			config.LogError(r.logger, "airtable", "Run", kind, nil, err)
			return err
		}
		r.logger.WithFields(logrus.Fields{
			"kind":     kind,
			"table":    table,
			"duration": time.Since(started).String(),
		}).Info("pull run complete")
		return nil
	}

	quota := es.Quota
	if quota <= 0 {
		quota = DefaultQuota
	}
	targets, err := es.SelectBatch(ctx, quota)
	if err != nil {
		config.LogError(r.logger, "airtable", "Run", kind, nil, err)
		return err
	}

	now := time.Now().UTC()
	attempted := make([]int, 0, len(targets))
	succeeded := make([]int, 0, len(targets))
	for _, target := range targets {
		attempted = append(attempted, target.LocalID)
		if err := r.syncOne(ctx, es, table, target); err != nil {
			config.LogError(r.logger, "airtable", "syncOne", kind, target.LocalID, err)
			continue
		}
		succeeded = append(succeeded, target.LocalID)
	}

	toMark := attempted
	if es.Mark == MarkOnSuccess {
		toMark = succeeded
	}
	if len(toMark) > 0 {
		if err := es.MarkSynced(ctx, toMark, now); err != nil {
			config.LogError(r.logger, "airtable", "MarkSynced", kind, toMark, err)
			return err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"table":     table,
		"selected":  len(targets),
		"succeeded": len(succeeded),
		"duration":  time.Since(started).String(),
	}).Info("sync run complete")
	return nil
}

// syncOne pushes a single record. A dangling external pointer is repaired in
// place: the NotFound update clears the pointer and the record is re-created
// as if it had never been pushed.
func (r *Runner) syncOne(ctx context.Context, es *EntitySync, table string, target SyncTarget) error {
	if target.ExternalID != "" {
		err := r.client.Update(ctx, table, target.ExternalID, target.Fields)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRecordNotFound) {
			return err
		}
		if err := es.SetExternalID(ctx, target.LocalID, nil); err != nil {
			return err
		}
	}

	externalID, err := r.client.Create(ctx, table, target.Fields)
	if err != nil {
		return err
	}
	return es.SetExternalID(ctx, target.LocalID, &externalID)
}
