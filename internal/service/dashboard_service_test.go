package service

import (
	"context"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
)

func dashboardTasks() []db.Task {
	at := func(day, hour int) time.Time { return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC) }
	return []db.Task{
		{ID: "overdue", Status: db.TaskStatusPending, Priority: db.TaskPriorityMedium, Category: db.TaskCategoryWork, DueDate: at(10, 9)},
		{ID: "today", Status: db.TaskStatusPending, Priority: db.TaskPriorityLow, Category: db.TaskCategoryPersonal, DueDate: at(12, 18)},
		{ID: "doing", Status: db.TaskStatusInProgress, Priority: db.TaskPriorityHigh, Category: db.TaskCategoryWork, DueDate: at(12, 9)},
		{ID: "tomorrow", Status: db.TaskStatusPending, Priority: db.TaskPriorityMedium, Category: db.TaskCategoryFinance, DueDate: at(13, 8)},
		{ID: "upcoming", Status: db.TaskStatusPending, Priority: db.TaskPriorityMedium, Category: db.TaskCategoryHealth, DueDate: at(20, 8)},
		{ID: "done", Status: db.TaskStatusDone, Priority: db.TaskPriorityHigh, Category: db.TaskCategoryWork, DueDate: at(11, 8)},
		{ID: "cancelled", Status: db.TaskStatusCancelled, Priority: db.TaskPriorityHigh, Category: db.TaskCategoryOther, DueDate: at(1, 8)},
	}
}

func TestBuildTaskStats(t *testing.T) {
	stats := BuildTaskStats(dashboardTasks(), testNow)

	if stats.Total != 7 {
		t.Fatalf("expected 7 tasks, got %d", stats.Total)
	}
	if stats.ByStatus[db.TaskStatusPending] != 4 || stats.ByCategory[db.TaskCategoryWork] != 3 || stats.ByPriority[db.TaskPriorityHigh] != 3 {
		t.Fatalf("unexpected counters: %+v %+v %+v", stats.ByStatus, stats.ByCategory, stats.ByPriority)
	}
	if stats.HighPriority != 1 {
		t.Fatalf("expected 1 open high priority task, got %d", stats.HighPriority)
	}
	if stats.CompletionRate != 14 || stats.ProgressRate != 29 {
		t.Fatalf("expected rates 14/29, got %d/%d", stats.CompletionRate, stats.ProgressRate)
	}

	want := DueBuckets{Overdue: 1, Today: 2, Tomorrow: 1, Upcoming: 1, ThisWeek: 4}
	if stats.Due != want {
		t.Fatalf("expected buckets %+v, got %+v", want, stats.Due)
	}

	if len(stats.LastSevenDays) != 7 {
		t.Fatalf("expected 7 days, got %d", len(stats.LastSevenDays))
	}
	if stats.LastSevenDays[0].Date != "2025-03-06" || stats.LastSevenDays[6].Date != "2025-03-12" {
		t.Fatalf("unexpected day window: %s..%s", stats.LastSevenDays[0].Date, stats.LastSevenDays[6].Date)
	}
	if d := stats.LastSevenDays[5]; d.Total != 1 || d.CompletionRate != 100 {
		t.Fatalf("unexpected 2025-03-11: %+v", d)
	}
	if d := stats.LastSevenDays[6]; d.Total != 2 || d.Completed != 0 {
		t.Fatalf("unexpected 2025-03-12: %+v", d)
	}
}

func TestBuildTaskStatsEmpty(t *testing.T) {
	stats := BuildTaskStats(nil, testNow)
	if stats.Total != 0 || stats.CompletionRate != 0 || stats.ProgressRate != 0 {
		t.Fatalf("unexpected stats for empty input: %+v", stats)
	}
}

func newTestDashboard(t *testing.T) (*DashboardService, *NotificationService, *testServices) {
	t.Helper()
	svc := newTestServices(t, nil)
	appointments := NewAppointmentService(svc.store)
	notifications := NewNotificationService(svc.store)
	dashboard := NewDashboardService(svc.store, svc.habits, appointments, notifications, time.UTC).WithClock(fixedClock)
	return dashboard, notifications, svc
}

func TestDashboardSummary(t *testing.T) {
	dashboard, _, svc := newTestDashboard(t)
	ctx := context.Background()

	for _, task := range dashboardTasks() {
		task.UserID = "u-1"
		seedTask(t, svc.store, task)
	}
	seedMonth(t, svc.store, "u-1",
		db.Habit{ID: "h-1", Name: "Água", Target: 4, Current: 4},
		db.Habit{ID: "h-2", Name: "Leitura", Target: 4, Current: 1},
	)
	old := db.MonthlyProgress{ID: "p-old", UserID: "u-1", Month: "fevereiro 2025", Overall: 80, CreatedAt: testNow.AddDate(0, -1, 0)}
	if err := svc.store.InsertMonthlyProgress(ctx, &old); err != nil {
		t.Fatalf("insert old month: %v", err)
	}

	appointments := NewAppointmentService(svc.store)
	for _, in := range []AppointmentInput{
		{Title: "Reunião", Date: testNow.Add(24 * time.Hour)},
		{Title: "Viagem", Date: testNow.Add(10 * 24 * time.Hour)},
		{Title: "Ontem", Date: testNow.Add(-24 * time.Hour)},
	} {
		if _, err := appointments.Create(ctx, "u-1", in); err != nil {
			t.Fatalf("create appointment: %v", err)
		}
	}

	summary, err := dashboard.Summary(ctx, "u-1")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if summary.Tasks.Total != 7 {
		t.Fatalf("expected 7 tasks, got %d", summary.Tasks.Total)
	}
	habits := summary.Habits
	if habits.Month != testMonth || habits.Overall != 63 || habits.Completed != 1 || habits.Total != 2 {
		t.Fatalf("unexpected habit stats: %+v", habits)
	}
	if habits.Habits[1].Percent != 25 || habits.Habits[0].Status != "completed" {
		t.Fatalf("unexpected per-habit stats: %+v", habits.Habits)
	}
	if len(habits.History) != 2 || habits.History[0].Month != testMonth {
		t.Fatalf("expected newest month first, got %+v", habits.History)
	}
	if len(summary.UpcomingAppointments) != 1 || summary.UpcomingAppointments[0].Title != "Reunião" {
		t.Fatalf("expected only next-week appointments, got %+v", summary.UpcomingAppointments)
	}
}

func TestDashboardNotifyOverdue(t *testing.T) {
	dashboard, notifications, svc := newTestDashboard(t)
	ctx := context.Background()

	n, err := dashboard.NotifyOverdue(ctx, "u-1")
	if err != nil || n != nil {
		t.Fatalf("expected no notification without overdue tasks, got %+v (%v)", n, err)
	}

	seedTask(t, svc.store, db.Task{ID: "t-1", UserID: "u-1", Title: "Atrasada", DueDate: testNow.AddDate(0, 0, -3)})

	n, err = dashboard.NotifyOverdue(ctx, "u-1")
	if err != nil || n == nil {
		t.Fatalf("expected notification, got %+v (%v)", n, err)
	}
	if n.Message != "Você tem 1 tarefa(s) vencida(s)" || n.Type != db.NotificationTypeTask {
		t.Fatalf("unexpected notification: %+v", n)
	}

	again, err := dashboard.NotifyOverdue(ctx, "u-1")
	if err != nil || again != nil {
		t.Fatalf("expected duplicate suppressed, got %+v (%v)", again, err)
	}

	if _, err := notifications.MarkAllRead(ctx, "u-1"); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}
	if n, _ := dashboard.NotifyOverdue(ctx, "u-1"); n == nil {
		t.Fatal("expected a new notification once the previous one was read")
	}
}
