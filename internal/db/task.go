package db

import "time"

const (
	TaskStatusPending    = "pendente"
	TaskStatusInProgress = "em progresso"
	TaskStatusDone       = "concluída"
	TaskStatusCancelled  = "cancelada"

	TaskPriorityLow    = "baixa"
	TaskPriorityMedium = "média"
	TaskPriorityHigh   = "alta"

	TaskCategoryFinance  = "Financeiro"
	TaskCategoryWork     = "Trabalho"
	TaskCategoryPersonal = "Pessoal"
	TaskCategoryHealth   = "Saúde"
	TaskCategoryOther    = "Outro"
)

var (
	TaskStatuses   = []string{TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled}
	TaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}
	TaskCategories = []string{TaskCategoryFinance, TaskCategoryWork, TaskCategoryPersonal, TaskCategoryHealth, TaskCategoryOther}
)

// Task 是用户的待办事项，按 user_id 隔离
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID      string     `gorm:"index;not null" bson:"user_id" json:"user_id"`
	Title       string     `gorm:"not null" bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Category    string     `gorm:"index" bson:"category" json:"category"`
	Status      string     `gorm:"index" bson:"status" json:"status"`
	Priority    string     `bson:"priority" json:"priority"`
	DueDate     time.Time  `bson:"due_date" json:"due_date"`
	CreatedAt   time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsValidTaskStatus reports whether value is one of TaskStatuses.
func IsValidTaskStatus(value string) bool { return contains(TaskStatuses, value) }

// IsValidTaskPriority reports whether value is one of TaskPriorities.
func IsValidTaskPriority(value string) bool { return contains(TaskPriorities, value) }

// IsValidTaskCategory reports whether value is one of TaskCategories.
func IsValidTaskCategory(value string) bool { return contains(TaskCategories, value) }

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
