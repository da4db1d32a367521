package tracker

import (
	"reflect"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
)

func sampleSources() ([]db.Task, []db.MonthlyProgress) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tasks := []db.Task{
		{ID: "t-late", Title: "Relatório", Status: db.TaskStatusPending, Priority: db.TaskPriorityHigh, Category: db.TaskCategoryWork, DueDate: base.AddDate(0, 0, 5)},
		{ID: "t-early", Title: "Pagar aluguel", Status: db.TaskStatusDone, Priority: db.TaskPriorityMedium, Category: db.TaskCategoryFinance, DueDate: base},
		{ID: "t-tie-b", Title: "beta", Status: db.TaskStatusPending, DueDate: base.AddDate(0, 0, 1)},
		{ID: "t-tie-a", Title: "Alfa", Status: db.TaskStatusPending, DueDate: base.AddDate(0, 0, 1)},
	}
	docs := []db.MonthlyProgress{{
		ID:    "p-1",
		Month: "março 2025",
		Habits: db.HabitList{
			{ID: "h-water", Name: "água", Target: 4, Current: 4, Unit: "copos", Streak: 2},
			{ID: "h-read", Name: "Leitura", Target: 2, Current: 1, Unit: "capítulos"},
			{ID: "h-run", Name: "Corrida", Target: 3, Current: 0, Unit: "km", Status: db.HabitStatusSkipped},
		},
	}}
	return tasks, docs
}

func TestBuildOrdering(t *testing.T) {
	tasks, docs := sampleSources()
	items := Build(tasks, docs)

	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	want := []string{"t-early", "t-tie-a", "t-tie-b", "t-late", "h-water", "h-run", "h-read"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected order:\n got %v\nwant %v", ids, want)
	}
}

func TestBuildIsPureFunctionOfInputs(t *testing.T) {
	tasks, docs := sampleSources()
	first := Build(tasks, docs)

	// Reverse the inputs; the output must not change.
	reversed := make([]db.Task, len(tasks))
	for i, task := range tasks {
		reversed[len(tasks)-1-i] = task
	}
	habits := docs[0].Habits.Clone()
	for i, j := 0, len(habits)-1; i < j; i, j = i+1, j-1 {
		habits[i], habits[j] = habits[j], habits[i]
	}
	docs[0].Habits = habits

	second := Build(reversed, docs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for permuted inputs")
	}
}

func TestBuildMapsFields(t *testing.T) {
	tasks, docs := sampleSources()
	items := Build(tasks, docs)

	done, ok := Find(items, "t-early")
	if !ok {
		t.Fatal("task item not found")
	}
	if !done.IsCompleted || done.Kind != KindTask || done.Task == nil || done.Habit != nil {
		t.Fatalf("unexpected task item: %+v", done)
	}
	if done.Task.Category != db.TaskCategoryFinance || done.DueDate == nil {
		t.Fatalf("expected category and due date passed through, got %+v", done)
	}

	water, _ := Find(items, "h-water")
	if water.Status != StatusCompleted || !water.IsCompleted || water.DueDate != nil {
		t.Fatalf("unexpected completed habit: %+v", water)
	}
	if water.Habit.ProgressID != "p-1" || water.Habit.Month != "março 2025" || water.Habit.Percent != 100 {
		t.Fatalf("unexpected habit fields: %+v", water.Habit)
	}

	run, _ := Find(items, "h-run")
	if run.Status != StatusSkipped || run.IsCompleted {
		t.Fatalf("expected skipped habit, got %+v", run)
	}

	read, _ := Find(items, "h-read")
	if read.Status != StatusInProgress || read.Habit.Percent != 50 {
		t.Fatalf("expected in-progress habit at 50%%, got %+v", read)
	}

	if _, ok := Find(items, "missing"); ok {
		t.Fatal("expected missing id to be absent")
	}
}

func TestBuildEmpty(t *testing.T) {
	items := Build(nil, nil)
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", items)
	}
}

func TestFilterApply(t *testing.T) {
	tasks, docs := sampleSources()
	items := Build(tasks, docs)

	habits := Filter{Kind: KindHabit}.Apply(items)
	if len(habits) != 3 {
		t.Fatalf("expected 3 habits, got %d", len(habits))
	}

	pending := Filter{Kind: KindTask, Status: db.TaskStatusPending}.Apply(items)
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending tasks, got %d", len(pending))
	}

	high := Filter{Priority: db.TaskPriorityHigh}.Apply(items)
	if len(high) != 1 || high[0].ID != "t-late" {
		t.Fatalf("expected only the high priority task, got %+v", high)
	}

	if all := (Filter{}).Apply(items); len(all) != len(items) {
		t.Fatalf("empty filter should return everything")
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind(" Habit "); !ok || k != KindHabit {
		t.Fatalf("expected habit kind, got %q %v", k, ok)
	}
	if _, ok := ParseKind("note"); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
}
