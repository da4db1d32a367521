package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/astrathh/taskify-habitory/internal/tracker"
)

// Coordinator routes complete/skip/update/delete actions on an item id to the
// backing task or habit, then reloads the item list. Ids are resolved against
// the user's last reconciled snapshot; an unknown id fails before any write.
type Coordinator struct {
	items  *Reconciler
	tasks  *TaskService
	habits *HabitService
	log    *logging.Logger
	now    func() time.Time
}

// NewItem 新建条目的输入，Kind 决定使用 Task 还是 Habit
type NewItem struct {
	Kind  tracker.Kind
	Task  TaskInput
	Habit HabitInput
}

// NewCoordinator 构造 Coordinator
func NewCoordinator(items *Reconciler, tasks *TaskService, habits *HabitService, log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Coordinator{items: items, tasks: tasks, habits: habits, log: log, now: time.Now}
}

// Items returns the fresh item list of the signed-in user.
func (c *Coordinator) Items(ctx context.Context) ([]tracker.Item, error) {
	s, ok := auth.SessionFrom(ctx)
	if !ok {
		return []tracker.Item{}, nil
	}
	return c.items.LoadItems(ctx, s.UserID)
}

// Complete marks a task concluída, or fills a habit to its target and bumps
// its streak. Completing an already completed item is rejected without a write.
func (c *Coordinator) Complete(ctx context.Context, id string) ([]tracker.Item, error) {
	return c.mutate(ctx, "complete", id, func(userID string, item tracker.Item) error {
		switch item.Kind {
		case tracker.KindTask:
			if item.IsCompleted {
				return ErrAlreadyCompleted
			}
			return c.tasks.Patch(ctx, userID, item.ID, store.Fields{
				"status":     db.TaskStatusDone,
				"updated_at": c.now(),
			})
		default:
			if item.Habit.Target <= 0 {
				return ErrInvalidTarget
			}
			if item.IsCompleted {
				return ErrAlreadyCompleted
			}
			_, err := c.habits.MutateHabit(ctx, userID, item.Habit.ProgressID, item.ID, func(h *db.Habit) error {
				if h.Target <= 0 {
					return ErrInvalidTarget
				}
				if tracker.IsHabitCompleted(*h) {
					return ErrAlreadyCompleted
				}
				h.Current = h.Target
				h.Streak++
				h.Status = ""
				return nil
			})
			return err
		}
	})
}

// Skip cancels a task, or resets a habit's streak and marks it skipped.
// A habit's current progress is left as is.
func (c *Coordinator) Skip(ctx context.Context, id string) ([]tracker.Item, error) {
	return c.mutate(ctx, "skip", id, func(userID string, item tracker.Item) error {
		switch item.Kind {
		case tracker.KindTask:
			return c.tasks.Patch(ctx, userID, item.ID, store.Fields{
				"status":     db.TaskStatusCancelled,
				"updated_at": c.now(),
			})
		default:
			_, err := c.habits.MutateHabit(ctx, userID, item.Habit.ProgressID, item.ID, func(h *db.Habit) error {
				h.Streak = 0
				h.Status = db.HabitStatusSkipped
				return nil
			})
			return err
		}
	})
}

// Update applies a partial field set. Task keys: name, status, priority,
// dueDate (or due_date), category, description. Habit keys: name, current,
// target, unit, streak. Unknown keys are ignored; bad values fail before any
// write.
func (c *Coordinator) Update(ctx context.Context, id string, fields map[string]any) ([]tracker.Item, error) {
	return c.mutate(ctx, "update", id, func(userID string, item tracker.Item) error {
		switch item.Kind {
		case tracker.KindTask:
			columns, err := taskColumns(fields, c.habits.loc)
			if err != nil {
				return err
			}
			columns["updated_at"] = c.now()
			return c.tasks.Patch(ctx, userID, item.ID, columns)
		default:
			patch, err := parseHabitPatch(fields)
			if err != nil {
				return err
			}
			_, err = c.habits.MutateHabit(ctx, userID, item.Habit.ProgressID, item.ID, patch.apply)
			return err
		}
	})
}

// Delete removes a task row, or removes a habit from its month document.
func (c *Coordinator) Delete(ctx context.Context, id string) ([]tracker.Item, error) {
	return c.mutate(ctx, "delete", id, func(userID string, item tracker.Item) error {
		switch item.Kind {
		case tracker.KindTask:
			return c.tasks.Delete(ctx, userID, item.ID)
		default:
			_, err := c.habits.RemoveHabit(ctx, userID, item.Habit.ProgressID, item.ID)
			return err
		}
	})
}

// Add creates a task, or appends a habit to the current month.
func (c *Coordinator) Add(ctx context.Context, in NewItem) ([]tracker.Item, error) {
	s, ok := auth.SessionFrom(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	var err error
	switch in.Kind {
	case tracker.KindTask:
		_, err = c.tasks.Create(ctx, s.UserID, in.Task)
	case tracker.KindHabit:
		_, _, err = c.habits.AddHabit(ctx, s.UserID, in.Habit)
	default:
		err = fmt.Errorf("%w: unknown item kind %q", ErrInvalidField, in.Kind)
	}

	metrics.RecordMutation("add", string(in.Kind), err)
	if err != nil {
		c.log.WithUser(s.UserID).Warn("add item failed", "kind", in.Kind, "error", err)
		return nil, err
	}
	return c.refresh(ctx, s.UserID)
}

func (c *Coordinator) mutate(ctx context.Context, action, id string, fn func(userID string, item tracker.Item) error) ([]tracker.Item, error) {
	s, ok := auth.SessionFrom(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	items, err := c.items.Snapshot(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	item, ok := tracker.Find(items, id)
	if !ok {
		return nil, ErrItemNotFound
	}

	log := c.log.WithUser(s.UserID).With("action", action, "item_id", id, "kind", item.Kind)
	err = fn(s.UserID, item)
	metrics.RecordMutation(action, string(item.Kind), err)
	if err != nil {
		if isStale(err) {
			c.items.Invalidate(ctx, s.UserID)
		}
		log.Warn("item mutation failed", "error", err)
		return nil, err
	}

	log.Info("item mutated")
	return c.refresh(ctx, s.UserID)
}

func (c *Coordinator) refresh(ctx context.Context, userID string) ([]tracker.Item, error) {
	items, err := c.items.LoadItems(ctx, userID)
	if err != nil {
		c.items.Invalidate(ctx, userID)
		return nil, err
	}
	return items, nil
}

// isStale reports errors meaning the snapshot no longer matches storage.
func isStale(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrHabitNotFound) || errors.Is(err, ErrProgressNotFound)
}

const dateLayout = "2006-01-02"

func taskColumns(fields map[string]any, loc *time.Location) (store.Fields, error) {
	columns := store.Fields{}
	for key, value := range fields {
		switch key {
		case "name", "title":
			name, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidField, key)
			}
			columns["title"] = strings.TrimSpace(name)
		case "status":
			v, err := enumField(key, value, db.IsValidTaskStatus)
			if err != nil {
				return nil, err
			}
			columns["status"] = v
		case "priority":
			v, err := enumField(key, value, db.IsValidTaskPriority)
			if err != nil {
				return nil, err
			}
			columns["priority"] = v
		case "category":
			v, err := enumField(key, value, db.IsValidTaskCategory)
			if err != nil {
				return nil, err
			}
			columns["category"] = v
		case "description":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			columns["description"] = strings.TrimSpace(v)
		case "dueDate", "due_date":
			due, err := timeField(key, value, loc)
			if err != nil {
				return nil, err
			}
			columns["due_date"] = due
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no updatable task fields", ErrInvalidField)
	}
	return columns, nil
}

type habitPatch struct {
	name    *string
	current *int
	target  *int
	unit    *string
	streak  *int
}

func parseHabitPatch(fields map[string]any) (habitPatch, error) {
	var p habitPatch
	for key, value := range fields {
		switch key {
		case "name":
			v, err := stringField(key, value)
			if err != nil {
				return p, err
			}
			v = strings.TrimSpace(v)
			if v == "" {
				return p, fmt.Errorf("%w: name must not be empty", ErrInvalidField)
			}
			p.name = &v
		case "unit":
			v, err := stringField(key, value)
			if err != nil {
				return p, err
			}
			v = strings.TrimSpace(v)
			if v == "" {
				v = defaultHabitUnit
			}
			p.unit = &v
		case "current", "target", "streak":
			v, err := intField(key, value)
			if err != nil {
				return p, err
			}
			switch key {
			case "current":
				p.current = &v
			case "target":
				p.target = &v
			default:
				p.streak = &v
			}
		}
	}
	if p.name == nil && p.current == nil && p.target == nil && p.unit == nil && p.streak == nil {
		return p, fmt.Errorf("%w: no updatable habit fields", ErrInvalidField)
	}
	return p, nil
}

func (p habitPatch) apply(h *db.Habit) error {
	if p.name != nil {
		h.Name = *p.name
	}
	if p.unit != nil {
		h.Unit = *p.unit
	}
	if p.target != nil {
		h.Target = *p.target
	}
	if p.streak != nil {
		h.Streak = *p.streak
	}
	if p.current != nil {
		h.Current = *p.current
		h.Status = ""
	}
	if h.Target > 0 && h.Current > h.Target {
		h.Current = h.Target
	}
	return nil
}

func stringField(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
	}
	return s, nil
}

func enumField(key string, value any, valid func(string) bool) (string, error) {
	s, err := stringField(key, value)
	if err != nil {
		return "", err
	}
	if !valid(s) {
		return "", fmt.Errorf("%w: unsupported %s %q", ErrInvalidField, key, s)
	}
	return s, nil
}

func intField(key string, value any) (int, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidField, key)
		}
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidField, key)
		}
		n = int(i)
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidField, key)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidField, key)
	}
	return n, nil
}

func timeField(key string, value any, loc *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", ErrInvalidField, key)
	default:
		return time.Time{}, fmt.Errorf("%w: %s must be a date string", ErrInvalidField, key)
	}
}
