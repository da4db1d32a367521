// Package tracker merges tasks and habits into one ordered list of trackable
// items and computes habit progress. It does no I/O.
package tracker

import (
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
)

// Kind 区分条目背后的记录类型
type Kind string

const (
	KindTask  Kind = "task"
	KindHabit Kind = "habit"
)

// ParseKind accepts "task"/"habit" in any case.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindTask:
		return KindTask, true
	case KindHabit:
		return KindHabit, true
	default:
		return "", false
	}
}

// Habit item statuses. Task items carry the task status verbatim.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
	StatusSkipped    = "skipped"
)

// Item is the unified view of a task or a habit. Exactly one of Task and
// Habit is set, matching Kind.
type Item struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	IsCompleted bool         `json:"is_completed"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Task        *TaskFields  `json:"task,omitempty"`
	Habit       *HabitFields `json:"habit,omitempty"`
}

// TaskFields 任务特有字段
type TaskFields struct {
	Priority        string `json:"priority"`
	Category        string `json:"category"`
	Description     string `json:"description,omitempty"`
	DescriptionHTML string `json:"description_html,omitempty"`
}

// HabitFields 习惯特有字段，ProgressID 指向所属的月度文档
type HabitFields struct {
	ProgressID string `json:"progress_id"`
	Month      string `json:"month"`
	Target     int    `json:"target"`
	Current    int    `json:"current"`
	Unit       string `json:"unit"`
	Streak     int    `json:"streak"`
	Percent    int    `json:"percent"`
}

// FromTask maps a task row to an item.
func FromTask(t db.Task) Item {
	due := t.DueDate
	item := Item{
		ID:          t.ID,
		Kind:        KindTask,
		Name:        t.Title,
		Status:      t.Status,
		IsCompleted: t.Status == db.TaskStatusDone,
		CreatedAt:   t.CreatedAt,
		Task: &TaskFields{
			Priority:    t.Priority,
			Category:    t.Category,
			Description: t.Description,
		},
	}
	if !due.IsZero() {
		item.DueDate = &due
	}
	return item
}

// FromHabit maps a habit embedded in doc to an item. Habits have no due date.
func FromHabit(doc db.MonthlyProgress, h db.Habit) Item {
	status := HabitStatus(h)
	return Item{
		ID:          h.ID,
		Kind:        KindHabit,
		Name:        h.Name,
		Status:      status,
		IsCompleted: status == StatusCompleted,
		CreatedAt:   doc.CreatedAt,
		Habit: &HabitFields{
			ProgressID: doc.ID,
			Month:      doc.Month,
			Target:     h.Target,
			Current:    h.Current,
			Unit:       h.Unit,
			Streak:     h.Streak,
			Percent:    HabitPercent(h),
		},
	}
}

// HabitStatus derives the item status of a habit. A habit with a positive
// target counts as completed once current reaches it; a persisted skip
// marker only applies while it is not completed.
func HabitStatus(h db.Habit) string {
	switch {
	case IsHabitCompleted(h):
		return StatusCompleted
	case h.Status == db.HabitStatusSkipped:
		return StatusSkipped
	default:
		return StatusInProgress
	}
}

// IsHabitCompleted reports current >= target for a positive target.
func IsHabitCompleted(h db.Habit) bool {
	return h.Target > 0 && h.Current >= h.Target
}
