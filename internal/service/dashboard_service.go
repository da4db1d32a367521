package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/astrathh/taskify-habitory/internal/tracker"
)

const upcomingAppointmentWindow = 7 * 24 * time.Hour

// DashboardService 汇总任务、习惯与日程的统计数据
type DashboardService struct {
	tasks         store.Tasks
	habits        *HabitService
	appointments  *AppointmentService
	notifications *NotificationService
	loc           *time.Location
	now           func() time.Time
}

// TaskStats 任务统计
type TaskStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	ByCategory     map[string]int `json:"by_category"`
	ByPriority     map[string]int `json:"by_priority"`
	HighPriority   int            `json:"high_priority_open"`
	CompletionRate int            `json:"completion_rate"`
	ProgressRate   int            `json:"progress_rate"`
	Due            DueBuckets     `json:"due"`
	LastSevenDays  []DayProgress  `json:"last_seven_days"`
}

// DueBuckets 未完成任务按截止时间分组的数量
type DueBuckets struct {
	Overdue  int `json:"overdue"`
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	Upcoming int `json:"upcoming"`
	ThisWeek int `json:"this_week"`
}

// DayProgress 单日到期任务的完成情况
type DayProgress struct {
	Date           string `json:"date"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completion_rate"`
}

// HabitProgress 单个习惯的百分比
type HabitProgress struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Current int    `json:"current"`
	Target  int    `json:"target"`
	Unit    string `json:"unit"`
	Streak  int    `json:"streak"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

// MonthSummary 历史月份概览
type MonthSummary struct {
	Month   string `json:"month"`
	Overall int    `json:"overall"`
	Habits  int    `json:"habits"`
}

// HabitStats 习惯统计
type HabitStats struct {
	Month     string          `json:"month"`
	Overall   int             `json:"overall"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Habits    []HabitProgress `json:"habits"`
	History   []MonthSummary  `json:"history"`
}

// Dashboard 首页数据
type Dashboard struct {
	Tasks                TaskStats        `json:"tasks"`
	Habits               HabitStats       `json:"habits"`
	UpcomingAppointments []db.Appointment `json:"upcoming_appointments"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(tasks store.Tasks, habits *HabitService, appointments *AppointmentService, notifications *NotificationService, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		tasks:         tasks,
		habits:        habits,
		appointments:  appointments,
		notifications: notifications,
		loc:           loc,
		now:           time.Now,
	}
}

// WithClock 允许在测试中固定当前时间
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	if now != nil {
		s.now = now
	}
	return s
}

// Summary 计算首页统计
func (s *DashboardService) Summary(ctx context.Context, userID string) (*Dashboard, error) {
	now := s.now().In(s.loc)

	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard tasks: %w", err)
	}

	history, err := s.habits.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard habits: %w", err)
	}

	upcoming, err := s.appointments.Upcoming(ctx, userID, now, 0)
	if err != nil {
		return nil, fmt.Errorf("dashboard appointments: %w", err)
	}
	limit := now.Add(upcomingAppointmentWindow)
	nextWeek := make([]db.Appointment, 0, len(upcoming))
	for _, a := range upcoming {
		if a.Date.After(limit) {
			break
		}
		nextWeek = append(nextWeek, a)
	}

	return &Dashboard{
		Tasks:                BuildTaskStats(tasks, now),
		Habits:               buildHabitStats(history, s.habits.CurrentMonth()),
		UpcomingAppointments: nextWeek,
		GeneratedAt:          now,
	}, nil
}

// NotifyOverdue adds a task notification when open tasks are past due.
// An identical unread notification is not repeated.
func (s *DashboardService) NotifyOverdue(ctx context.Context, userID string) (*db.Notification, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("overdue tasks: %w", err)
	}

	overdue := BuildTaskStats(tasks, s.now().In(s.loc)).Due.Overdue
	if overdue == 0 {
		return nil, nil
	}

	message := fmt.Sprintf("Você tem %d tarefa(s) vencida(s)", overdue)
	summary, err := s.notifications.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, n := range summary.Items {
		if !n.Read && n.Message == message {
			return nil, nil
		}
	}
	return s.notifications.Add(ctx, userID, message, db.NotificationTypeTask)
}

// BuildTaskStats 按状态、分类、优先级计数并计算截止时间分组，now 决定"今天"
func BuildTaskStats(tasks []db.Task, now time.Time) TaskStats {
	stats := TaskStats{
		Total:      len(tasks),
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
		ByPriority: map[string]int{},
	}

	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)

	for _, t := range tasks {
		stats.ByStatus[t.Status]++
		stats.ByCategory[t.Category]++
		stats.ByPriority[t.Priority]++

		if !isOpenTask(t) {
			continue
		}
		if t.Priority == db.TaskPriorityHigh {
			stats.HighPriority++
		}

		due := t.DueDate.In(now.Location())
		switch {
		case due.Before(today):
			stats.Due.Overdue++
		case due.Before(tomorrow):
			stats.Due.Today++
		case due.Before(dayAfter):
			stats.Due.Tomorrow++
		default:
			stats.Due.Upcoming++
		}
		if !due.Before(weekStart) && due.Before(weekEnd) {
			stats.Due.ThisWeek++
		}
	}

	done := stats.ByStatus[db.TaskStatusDone]
	inProgress := stats.ByStatus[db.TaskStatusInProgress]
	stats.CompletionRate = percentOf(done, stats.Total)
	stats.ProgressRate = percentOf(done+inProgress, stats.Total)
	stats.LastSevenDays = lastSevenDays(tasks, today)
	return stats
}

func lastSevenDays(tasks []db.Task, today time.Time) []DayProgress {
	days := make([]DayProgress, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, i-6).Format(dateLayout)
		days[i] = DayProgress{Date: date}
		index[date] = i
	}

	for _, t := range tasks {
		i, ok := index[t.DueDate.In(today.Location()).Format(dateLayout)]
		if !ok {
			continue
		}
		days[i].Total++
		if t.Status == db.TaskStatusDone {
			days[i].Completed++
		}
	}
	for i := range days {
		days[i].CompletionRate = percentOf(days[i].Completed, days[i].Total)
	}
	return days
}

func buildHabitStats(history []db.MonthlyProgress, month string) HabitStats {
	stats := HabitStats{
		Month:   month,
		Habits:  []HabitProgress{},
		History: make([]MonthSummary, 0, len(history)),
	}

	for _, doc := range history {
		stats.History = append(stats.History, MonthSummary{Month: doc.Month, Overall: doc.Overall, Habits: len(doc.Habits)})
		if !strings.EqualFold(doc.Month, month) {
			continue
		}

		stats.Overall = tracker.RecomputeOverall(doc.Habits)
		stats.Total = len(doc.Habits)
		for _, h := range doc.Habits {
			if tracker.IsHabitCompleted(h) {
				stats.Completed++
			}
			stats.Habits = append(stats.Habits, HabitProgress{
				ID:      h.ID,
				Name:    h.Name,
				Current: h.Current,
				Target:  h.Target,
				Unit:    h.Unit,
				Streak:  h.Streak,
				Percent: tracker.HabitPercent(h),
				Status:  tracker.HabitStatus(h),
			})
		}
	}
	return stats
}

func isOpenTask(t db.Task) bool {
	return t.Status != db.TaskStatusDone && t.Status != db.TaskStatusCancelled
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func percentOf(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
