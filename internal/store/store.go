// Package store defines the data access contracts used by the services and
// their gorm (sqlite) implementation. Every call is scoped by user id.
package store

import (
	"context"
	"errors"

	"github.com/astrathh/taskify-habitory/internal/db"
)

var (
	// ErrNotFound 记录不存在或不属于该用户
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束（例如同一用户同一月份的进度文档）
	ErrDuplicate = errors.New("duplicate record")
)

// Fields 为部分更新使用的列名 -> 值
type Fields map[string]any

// Tasks 任务表
type Tasks interface {
	// ListTasks returns the user's tasks, most recently created first.
	ListTasks(ctx context.Context, userID string) ([]db.Task, error)
	GetTask(ctx context.Context, userID, id string) (*db.Task, error)
	InsertTask(ctx context.Context, task *db.Task) error
	UpdateTask(ctx context.Context, userID, id string, fields Fields) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// Progress 月度习惯进度文档
type Progress interface {
	// ListMonthlyProgress filters by month when month is non-empty; newest first.
	ListMonthlyProgress(ctx context.Context, userID, month string) ([]db.MonthlyProgress, error)
	// InsertMonthlyProgress returns ErrDuplicate when the (user, month) pair already exists.
	InsertMonthlyProgress(ctx context.Context, doc *db.MonthlyProgress) error
	UpdateMonthlyProgress(ctx context.Context, userID, id string, fields Fields) error
}

// Notifications 站内通知
type Notifications interface {
	ListNotifications(ctx context.Context, userID string) ([]db.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	InsertNotification(ctx context.Context, n *db.Notification) error
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

// Appointments 日程
type Appointments interface {
	// ListAppointments returns the user's appointments ordered by date ascending.
	ListAppointments(ctx context.Context, userID string) ([]db.Appointment, error)
	GetAppointment(ctx context.Context, userID, id string) (*db.Appointment, error)
	InsertAppointment(ctx context.Context, a *db.Appointment) error
	UpdateAppointment(ctx context.Context, userID, id string, fields Fields) error
	DeleteAppointment(ctx context.Context, userID, id string) error
}

// Users 账号
type Users interface {
	GetUser(ctx context.Context, id string) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	InsertUser(ctx context.Context, u *db.User) error
	UpdateUser(ctx context.Context, id string, fields Fields) error
}

// Backend 组合所有表，由具体驱动实现
type Backend interface {
	Tasks
	Progress
	Notifications
	Appointments
	Users
	Close(ctx context.Context) error
}
