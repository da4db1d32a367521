package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/locale"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/astrathh/taskify-habitory/internal/tracker"
	"github.com/google/uuid"
)

const defaultHabitUnit = "vezes"

// HabitService 负责月度进度文档及其中习惯的读写
// 每次修改习惯后都会重新计算并写回 overall
type HabitService struct {
	progress store.Progress
	loc      *time.Location
	now      func() time.Time
}

// HabitInput 定义新建习惯时可配置字段
type HabitInput struct {
	Name    string
	Target  int
	Current int
	Unit    string
	Streak  int
}

// NewHabitService 构造 HabitService，loc 决定当前月份的归属
func NewHabitService(progress store.Progress, loc *time.Location) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{progress: progress, loc: loc, now: time.Now}
}

// WithClock 允许在测试中固定当前时间
func (s *HabitService) WithClock(now func() time.Time) *HabitService {
	if now != nil {
		s.now = now
	}
	return s
}

// CurrentMonth returns the label of the current month, e.g. "março 2025".
func (s *HabitService) CurrentMonth() string {
	return locale.MonthLabel(s.now().In(s.loc))
}

// FindMonth 返回指定月份的文档，不存在时 ok=false 且不创建
func (s *HabitService) FindMonth(ctx context.Context, userID, month string) (*db.MonthlyProgress, bool, error) {
	docs, err := s.progress.ListMonthlyProgress(ctx, userID, month)
	if err != nil {
		return nil, false, err
	}
	if len(docs) == 0 {
		return nil, false, nil
	}
	return &docs[0], true, nil
}

// EnsureMonth 返回指定月份的文档，不存在时创建；并发创建冲突时重新读取
func (s *HabitService) EnsureMonth(ctx context.Context, userID, month string) (*db.MonthlyProgress, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		month = s.CurrentMonth()
	}

	doc, ok, err := s.FindMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("find month: %w", err)
	}
	if ok {
		return doc, nil
	}

	created := db.MonthlyProgress{
		ID:        uuid.NewString(),
		UserID:    userID,
		Month:     month,
		Habits:    db.HabitList{},
		CreatedAt: s.now(),
	}
	err = s.progress.InsertMonthlyProgress(ctx, &created)
	if err == nil {
		return &created, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("create month: %w", err)
	}

	doc, ok, err = s.FindMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("reload month: %w", err)
	}
	if !ok {
		return nil, ErrProgressNotFound
	}
	return doc, nil
}

// History 返回用户所有月份的进度，最新的在前
func (s *HabitService) History(ctx context.Context, userID string) ([]db.MonthlyProgress, error) {
	docs, err := s.progress.ListMonthlyProgress(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list progress history: %w", err)
	}
	return docs, nil
}

// AddHabit 向当前月份追加习惯
func (s *HabitService) AddHabit(ctx context.Context, userID string, input HabitInput) (*db.MonthlyProgress, *db.Habit, error) {
	return s.AddHabitToMonth(ctx, userID, "", input)
}

// AddHabitToMonth 向指定月份追加习惯，月份不存在时先创建
func (s *HabitService) AddHabitToMonth(ctx context.Context, userID, month string, input HabitInput) (*db.MonthlyProgress, *db.Habit, error) {
	habit, err := buildHabit(input)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.EnsureMonth(ctx, userID, month)
	if err != nil {
		return nil, nil, err
	}

	for _, h := range doc.Habits {
		if strings.EqualFold(h.Name, habit.Name) {
			return nil, nil, ErrHabitExists
		}
	}

	habits := append(doc.Habits.Clone(), habit)
	if err := s.persist(ctx, doc, habits); err != nil {
		return nil, nil, err
	}
	return doc, &habit, nil
}

// Increment 将进度加一，不超过目标值
func (s *HabitService) Increment(ctx context.Context, userID, progressID, habitID string) (*db.MonthlyProgress, error) {
	return s.MutateHabit(ctx, userID, progressID, habitID, func(h *db.Habit) error {
		if h.Target <= 0 {
			return ErrInvalidTarget
		}
		if h.Current < h.Target {
			h.Current++
		}
		h.Status = ""
		return nil
	})
}

// Decrement 将进度减一，不低于 0
func (s *HabitService) Decrement(ctx context.Context, userID, progressID, habitID string) (*db.MonthlyProgress, error) {
	return s.MutateHabit(ctx, userID, progressID, habitID, func(h *db.Habit) error {
		if h.Current > 0 {
			h.Current--
		}
		h.Status = ""
		return nil
	})
}

// MutateHabit loads the document, applies fn to the habit and writes the
// habits back together with the recomputed overall. fn errors abort the write.
func (s *HabitService) MutateHabit(ctx context.Context, userID, progressID, habitID string, fn func(*db.Habit) error) (*db.MonthlyProgress, error) {
	doc, err := s.load(ctx, userID, progressID)
	if err != nil {
		return nil, err
	}

	habits := doc.Habits.Clone()
	idx := indexOfHabit(habits, habitID)
	if idx < 0 {
		return nil, ErrHabitNotFound
	}

	if err := fn(&habits[idx]); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, doc, habits); err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveHabit 从文档中删除一个习惯并重新计算 overall
func (s *HabitService) RemoveHabit(ctx context.Context, userID, progressID, habitID string) (*db.MonthlyProgress, error) {
	doc, err := s.load(ctx, userID, progressID)
	if err != nil {
		return nil, err
	}

	idx := indexOfHabit(doc.Habits, habitID)
	if idx < 0 {
		return nil, ErrHabitNotFound
	}

	habits := make(db.HabitList, 0, len(doc.Habits)-1)
	habits = append(habits, doc.Habits[:idx]...)
	habits = append(habits, doc.Habits[idx+1:]...)

	if err := s.persist(ctx, doc, habits); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *HabitService) load(ctx context.Context, userID, progressID string) (*db.MonthlyProgress, error) {
	docs, err := s.progress.ListMonthlyProgress(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for i := range docs {
		if docs[i].ID == progressID {
			return &docs[i], nil
		}
	}
	return nil, ErrProgressNotFound
}

func (s *HabitService) persist(ctx context.Context, doc *db.MonthlyProgress, habits db.HabitList) error {
	overall := tracker.RecomputeOverall(habits)
	err := s.progress.UpdateMonthlyProgress(ctx, doc.UserID, doc.ID, store.Fields{
		"habits":  habits,
		"overall": overall,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrProgressNotFound
	}
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	doc.Habits = habits
	doc.Overall = overall
	return nil
}

func buildHabit(input HabitInput) (db.Habit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return db.Habit{}, fmt.Errorf("%w: habit name is required", ErrInvalidField)
	}
	if input.Target < 0 || input.Current < 0 || input.Streak < 0 {
		return db.Habit{}, fmt.Errorf("%w: habit counters must not be negative", ErrInvalidField)
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = defaultHabitUnit
	}

	current := input.Current
	if input.Target > 0 && current > input.Target {
		current = input.Target
	}

	return db.Habit{
		ID:      uuid.NewString(),
		Name:    name,
		Target:  input.Target,
		Current: current,
		Unit:    unit,
		Streak:  input.Streak,
	}, nil
}

func indexOfHabit(habits db.HabitList, id string) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
