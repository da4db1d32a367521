package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2025-03-12 is a Wednesday.
var testNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

const testMonth = "março 2025"

func fixedClock() time.Time { return testNow }

func setupTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	s := store.NewGormStore(gdb)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func signedIn(userID string) context.Context {
	return auth.WithSession(context.Background(), auth.Session{UserID: userID, Email: userID + "@example.com"})
}

type testServices struct {
	store     store.Backend
	tasks     *TaskService
	habits    *HabitService
	snapshots *MemorySnapshots
	items     *Reconciler
	coord     *Coordinator
}

func newTestServices(t *testing.T, backend store.Backend) *testServices {
	t.Helper()
	if backend == nil {
		backend = setupTestStore(t)
	}

	tasks := NewTaskService(backend).WithClock(fixedClock)
	habits := NewHabitService(backend, time.UTC).WithClock(fixedClock)
	snapshots := NewMemorySnapshots(0)
	items := NewReconciler(backend, habits, snapshots, logging.NopLogger())
	coord := NewCoordinator(items, tasks, habits, logging.NopLogger())
	coord.now = fixedClock

	return &testServices{
		store:     backend,
		tasks:     tasks,
		habits:    habits,
		snapshots: snapshots,
		items:     items,
		coord:     coord,
	}
}

var errBackendDown = errors.New("backend unavailable")

// fakeBackend is an in-memory store.Backend that counts every call and can
// be told to fail specific operations.
type fakeBackend struct {
	mu    sync.Mutex
	calls int

	tasks []db.Task
	docs  []db.MonthlyProgress

	failListTasks    bool
	failListProgress bool
	failUpdateTask   bool
	duplicateOnce    *db.MonthlyProgress
}

var _ store.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) ListTasks(_ context.Context, userID string) ([]db.Task, error) {
	f.hit()
	if f.failListTasks {
		return nil, errBackendDown
	}
	var out []db.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetTask(_ context.Context, userID, id string) (*db.Task, error) {
	f.hit()
	for _, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			task := t
			return &task, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBackend) InsertTask(_ context.Context, task *db.Task) error {
	f.hit()
	f.tasks = append(f.tasks, *task)
	return nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, userID, id string, fields store.Fields) error {
	f.hit()
	if f.failUpdateTask {
		return errBackendDown
	}
	for i, t := range f.tasks {
		if t.ID != id || t.UserID != userID {
			continue
		}
		if v, ok := fields["status"].(string); ok {
			f.tasks[i].Status = v
		}
		if v, ok := fields["title"].(string); ok {
			f.tasks[i].Title = v
		}
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeBackend) DeleteTask(_ context.Context, userID, id string) error {
	f.hit()
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeBackend) ListMonthlyProgress(_ context.Context, userID, month string) ([]db.MonthlyProgress, error) {
	f.hit()
	if f.failListProgress {
		return nil, errBackendDown
	}
	var out []db.MonthlyProgress
	for _, d := range f.docs {
		if d.UserID == userID && (month == "" || d.Month == month) {
			d.Habits = d.Habits.Clone()
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertMonthlyProgress(_ context.Context, doc *db.MonthlyProgress) error {
	f.hit()
	if f.duplicateOnce != nil {
		// Simulate a concurrent creator winning the race.
		f.docs = append(f.docs, *f.duplicateOnce)
		f.duplicateOnce = nil
		return fmt.Errorf("insert progress: %w", store.ErrDuplicate)
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeBackend) UpdateMonthlyProgress(_ context.Context, userID, id string, fields store.Fields) error {
	f.hit()
	for i, d := range f.docs {
		if d.ID != id || d.UserID != userID {
			continue
		}
		if v, ok := fields["habits"].(db.HabitList); ok {
			f.docs[i].Habits = v.Clone()
		}
		if v, ok := fields["overall"].(int); ok {
			f.docs[i].Overall = v
		}
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeBackend) ListNotifications(context.Context, string) ([]db.Notification, error) {
	f.hit()
	return nil, nil
}

func (f *fakeBackend) CountUnreadNotifications(context.Context, string) (int64, error) {
	f.hit()
	return 0, nil
}

func (f *fakeBackend) InsertNotification(context.Context, *db.Notification) error {
	f.hit()
	return nil
}

func (f *fakeBackend) MarkNotificationRead(context.Context, string, string) error {
	f.hit()
	return nil
}

func (f *fakeBackend) MarkAllNotificationsRead(context.Context, string) (int64, error) {
	f.hit()
	return 0, nil
}

func (f *fakeBackend) DeleteNotification(context.Context, string, string) error {
	f.hit()
	return nil
}

func (f *fakeBackend) ListAppointments(context.Context, string) ([]db.Appointment, error) {
	f.hit()
	return nil, nil
}

func (f *fakeBackend) GetAppointment(context.Context, string, string) (*db.Appointment, error) {
	f.hit()
	return nil, store.ErrNotFound
}

func (f *fakeBackend) InsertAppointment(context.Context, *db.Appointment) error {
	f.hit()
	return nil
}

func (f *fakeBackend) UpdateAppointment(context.Context, string, string, store.Fields) error {
	f.hit()
	return nil
}

func (f *fakeBackend) DeleteAppointment(context.Context, string, string) error {
	f.hit()
	return nil
}

func (f *fakeBackend) GetUser(context.Context, string) (*db.User, error) {
	f.hit()
	return nil, store.ErrNotFound
}

func (f *fakeBackend) GetUserByEmail(context.Context, string) (*db.User, error) {
	f.hit()
	return nil, store.ErrNotFound
}

func (f *fakeBackend) InsertUser(context.Context, *db.User) error {
	f.hit()
	return nil
}

func (f *fakeBackend) UpdateUser(context.Context, string, store.Fields) error {
	f.hit()
	return nil
}

func (f *fakeBackend) Close(context.Context) error { return nil }

// seedMonth inserts a progress document for the current test month.
func seedMonth(t *testing.T, s store.Progress, userID string, habits ...db.Habit) *db.MonthlyProgress {
	t.Helper()
	doc := db.MonthlyProgress{
		ID:        "p-" + userID,
		UserID:    userID,
		Month:     testMonth,
		Habits:    db.HabitList(habits),
		CreatedAt: testNow,
	}
	if err := s.InsertMonthlyProgress(context.Background(), &doc); err != nil {
		t.Fatalf("seed month: %v", err)
	}
	return &doc
}

func seedTask(t *testing.T, s store.Tasks, task db.Task) {
	t.Helper()
	if task.Priority == "" {
		task.Priority = db.TaskPriorityMedium
	}
	if task.Category == "" {
		task.Category = db.TaskCategoryOther
	}
	if task.Status == "" {
		task.Status = db.TaskStatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = testNow
	}
	if err := s.InsertTask(context.Background(), &task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func findDoc(t *testing.T, s store.Progress, userID string) db.MonthlyProgress {
	t.Helper()
	docs, err := s.ListMonthlyProgress(context.Background(), userID, testMonth)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected one progress document, got %d (%v)", len(docs), err)
	}
	return docs[0]
}
