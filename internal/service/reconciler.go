package service

import (
	"context"
	"fmt"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/astrathh/taskify-habitory/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// Reconciler builds the unified item list from tasks and the current month's
// habits and remembers it as the user's snapshot.
type Reconciler struct {
	tasks     store.Tasks
	habits    *HabitService
	snapshots SnapshotStore
	log       *logging.Logger
}

// NewReconciler 构造 Reconciler
func NewReconciler(tasks store.Tasks, habits *HabitService, snapshots SnapshotStore, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Reconciler{tasks: tasks, habits: habits, snapshots: snapshots, log: log}
}

// LoadItems fetches both sources and returns the sorted item list. Either
// fetch failing fails the call and leaves the snapshot untouched. An empty
// userID yields an empty list.
func (r *Reconciler) LoadItems(ctx context.Context, userID string) ([]tracker.Item, error) {
	if userID == "" {
		return []tracker.Item{}, nil
	}

	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	var (
		tasks []db.Task
		docs  []db.MonthlyProgress
	)
	month := r.habits.CurrentMonth()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = r.tasks.ListTasks(gctx, userID)
		return err
	})
	g.Go(func() error {
		doc, ok, err := r.habits.FindMonth(gctx, userID, month)
		if ok {
			docs = []db.MonthlyProgress{*doc}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.ReconcileFailures.Inc()
		r.log.WithUser(userID).Warn("load items failed", "error", err)
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := tracker.Build(tasks, docs)
	for i := range items {
		if items[i].Task != nil && items[i].Task.Description != "" {
			items[i].Task.DescriptionHTML = RenderDescription(items[i].Task.Description)
		}
	}

	if err := r.snapshots.Put(ctx, userID, items); err != nil {
		r.log.WithUser(userID).Warn("store snapshot failed", "error", err)
	}
	r.log.WithUser(userID).Debug("items reconciled", "count", len(items), "month", month)
	return items, nil
}

// Snapshot returns the last reconciled list, loading it when absent.
func (r *Reconciler) Snapshot(ctx context.Context, userID string) ([]tracker.Item, error) {
	items, ok, err := r.snapshots.Get(ctx, userID)
	if err != nil {
		r.log.WithUser(userID).Warn("read snapshot failed", "error", err)
	}
	if ok {
		metrics.SnapshotEvents.WithLabelValues("hit").Inc()
		return items, nil
	}
	metrics.SnapshotEvents.WithLabelValues("miss").Inc()
	return r.LoadItems(ctx, userID)
}

// Invalidate drops the user's snapshot so the next read reloads it.
func (r *Reconciler) Invalidate(ctx context.Context, userID string) {
	if err := r.snapshots.Drop(ctx, userID); err != nil {
		r.log.WithUser(userID).Warn("drop snapshot failed", "error", err)
		return
	}
	metrics.SnapshotEvents.WithLabelValues("drop").Inc()
}
