package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"gorm.io/gorm"
)

// GormStore implements Backend on top of gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Backend = (*GormStore)(nil)

// NewGormStore 构造 GormStore，gdb 需已完成迁移
func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

// Close 关闭底层连接
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListTasks(ctx context.Context, userID string) ([]db.Task, error) {
	defer metrics.TrackStoreOperation("list", "tasks")()

	var tasks []db.Task
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *GormStore) GetTask(ctx context.Context, userID, id string) (*db.Task, error) {
	defer metrics.TrackStoreOperation("get", "tasks")()

	var task db.Task
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, translate("get task", err)
	}
	return &task, nil
}

func (s *GormStore) InsertTask(ctx context.Context, task *db.Task) error {
	defer metrics.TrackStoreOperation("insert", "tasks")()

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return translate("insert task", err)
	}
	return nil
}

func (s *GormStore) UpdateTask(ctx context.Context, userID, id string, fields Fields) error {
	defer metrics.TrackStoreOperation("update", "tasks")()
	return s.updateScoped(ctx, &db.Task{}, "update task", userID, id, fields)
}

func (s *GormStore) DeleteTask(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", "tasks")()
	return s.deleteScoped(ctx, &db.Task{}, "delete task", userID, id)
}

func (s *GormStore) ListMonthlyProgress(ctx context.Context, userID, month string) ([]db.MonthlyProgress, error) {
	defer metrics.TrackStoreOperation("list", "progress")()

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if month != "" {
		query = query.Where("month = ?", month)
	}

	var docs []db.MonthlyProgress
	if err := query.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return docs, nil
}

func (s *GormStore) InsertMonthlyProgress(ctx context.Context, doc *db.MonthlyProgress) error {
	defer metrics.TrackStoreOperation("insert", "progress")()

	if doc.Habits == nil {
		doc.Habits = db.HabitList{}
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return translate("insert progress", err)
	}
	return nil
}

func (s *GormStore) UpdateMonthlyProgress(ctx context.Context, userID, id string, fields Fields) error {
	defer metrics.TrackStoreOperation("update", "progress")()
	return s.updateScoped(ctx, &db.MonthlyProgress{}, "update progress", userID, id, fields)
}

func (s *GormStore) ListNotifications(ctx context.Context, userID string) ([]db.Notification, error) {
	defer metrics.TrackStoreOperation("list", "notifications")()

	var items []db.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *GormStore) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	defer metrics.TrackStoreOperation("count", "notifications")()

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *GormStore) InsertNotification(ctx context.Context, n *db.Notification) error {
	defer metrics.TrackStoreOperation("insert", "notifications")()

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return translate("insert notification", err)
	}
	return nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("update", "notifications")()
	return s.updateScoped(ctx, &db.Notification{}, "mark notification read", userID, id, Fields{"read": true})
}

func (s *GormStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	defer metrics.TrackStoreOperation("update_many", "notifications")()

	result := s.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) DeleteNotification(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", "notifications")()
	return s.deleteScoped(ctx, &db.Notification{}, "delete notification", userID, id)
}

func (s *GormStore) ListAppointments(ctx context.Context, userID string) ([]db.Appointment, error) {
	defer metrics.TrackStoreOperation("list", "appointments")()

	var items []db.Appointment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

func (s *GormStore) GetAppointment(ctx context.Context, userID, id string) (*db.Appointment, error) {
	defer metrics.TrackStoreOperation("get", "appointments")()

	var item db.Appointment
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		return nil, translate("get appointment", err)
	}
	return &item, nil
}

func (s *GormStore) InsertAppointment(ctx context.Context, a *db.Appointment) error {
	defer metrics.TrackStoreOperation("insert", "appointments")()

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return translate("insert appointment", err)
	}
	return nil
}

func (s *GormStore) UpdateAppointment(ctx context.Context, userID, id string, fields Fields) error {
	defer metrics.TrackStoreOperation("update", "appointments")()
	return s.updateScoped(ctx, &db.Appointment{}, "update appointment", userID, id, fields)
}

func (s *GormStore) DeleteAppointment(ctx context.Context, userID, id string) error {
	defer metrics.TrackStoreOperation("delete", "appointments")()
	return s.deleteScoped(ctx, &db.Appointment{}, "delete appointment", userID, id)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*db.User, error) {
	defer metrics.TrackStoreOperation("get", "users")()

	var user db.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	defer metrics.TrackStoreOperation("get", "users")()

	var user db.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (s *GormStore) InsertUser(ctx context.Context, u *db.User) error {
	defer metrics.TrackStoreOperation("insert", "users")()

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate("insert user", err)
	}
	return nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id string, fields Fields) error {
	defer metrics.TrackStoreOperation("update", "users")()

	result := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(map[string]any(fields))
	if result.Error != nil {
		return translate("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) updateScoped(ctx context.Context, model any, op, userID, id string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(model).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any(fields))
	if result.Error != nil {
		return translate(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) deleteScoped(ctx context.Context, model any, op, userID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
