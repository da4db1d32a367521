package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/google/uuid"
)

// TaskService 负责任务的增删改查
type TaskService struct {
	tasks store.Tasks
	now   func() time.Time
}

// TaskFilter 描述列表过滤条件
type TaskFilter struct {
	Status   string
	Category string
	Priority string
	Search   string
}

// TaskInput 定义创建/更新任务时可配置字段
type TaskInput struct {
	Title       string
	Description string
	Category    string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// NewTaskService 构造 TaskService
func NewTaskService(tasks store.Tasks) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

// WithClock 允许在测试中固定当前时间
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	if now != nil {
		s.now = now
	}
	return s
}

// List 返回用户任务，按创建时间倒序，支持基本筛选
func (s *TaskService) List(ctx context.Context, userID string, filter TaskFilter) ([]db.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]db.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Get 根据 ID 获取任务
func (s *TaskService) Get(ctx context.Context, userID, id string) (*db.Task, error) {
	task, err := s.tasks.GetTask(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Create 新建任务；未指定的枚举字段使用默认值，截止时间默认为当前时间
func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*db.Task, error) {
	input = withTaskDefaults(input)
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	due := now
	if input.DueDate != nil {
		due = *input.DueDate
	}

	task := db.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     due,
		CreatedAt:   now,
	}

	if err := s.tasks.InsertTask(ctx, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// Update 用完整输入覆盖任务字段
func (s *TaskService) Update(ctx context.Context, userID, id string, input TaskInput) (*db.Task, error) {
	input = withTaskDefaults(input)
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	fields := store.Fields{
		"title":       strings.TrimSpace(input.Title),
		"description": strings.TrimSpace(input.Description),
		"category":    input.Category,
		"status":      input.Status,
		"priority":    input.Priority,
		"updated_at":  s.now(),
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}

	if err := s.Patch(ctx, userID, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Patch writes already-validated columns.
func (s *TaskService) Patch(ctx context.Context, userID, id string, fields store.Fields) error {
	err := s.tasks.UpdateTask(ctx, userID, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete 删除任务
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	err := s.tasks.DeleteTask(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func withTaskDefaults(input TaskInput) TaskInput {
	if strings.TrimSpace(input.Status) == "" {
		input.Status = db.TaskStatusPending
	}
	if strings.TrimSpace(input.Priority) == "" {
		input.Priority = db.TaskPriorityMedium
	}
	if strings.TrimSpace(input.Category) == "" {
		input.Category = db.TaskCategoryOther
	}
	return input
}

func validateTaskInput(input TaskInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: task title is required", ErrInvalidField)
	}
	if !db.IsValidTaskStatus(input.Status) {
		return fmt.Errorf("%w: unsupported status %q", ErrInvalidField, input.Status)
	}
	if !db.IsValidTaskPriority(input.Priority) {
		return fmt.Errorf("%w: unsupported priority %q", ErrInvalidField, input.Priority)
	}
	if !db.IsValidTaskCategory(input.Category) {
		return fmt.Errorf("%w: unsupported category %q", ErrInvalidField, input.Category)
	}
	return nil
}
