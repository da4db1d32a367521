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

// AppointmentService 日程的增删改查
type AppointmentService struct {
	appointments store.Appointments
	now          func() time.Time
}

// AppointmentInput 定义创建/更新日程时可配置字段
type AppointmentInput struct {
	Title    string
	Location string
	Date     time.Time
	Reminder bool
}

// NewAppointmentService 构造 AppointmentService
func NewAppointmentService(appointments store.Appointments) *AppointmentService {
	return &AppointmentService{appointments: appointments, now: time.Now}
}

// List 按日期升序返回日程
func (s *AppointmentService) List(ctx context.Context, userID string) ([]db.Appointment, error) {
	items, err := s.appointments.ListAppointments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []db.Appointment{}
	}
	return items, nil
}

// Upcoming 返回 from 之后最近的 limit 条日程
func (s *AppointmentService) Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]db.Appointment, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]db.Appointment, 0, limit)
	for _, a := range items {
		if a.Date.Before(from) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get 根据 ID 获取日程
func (s *AppointmentService) Get(ctx context.Context, userID, id string) (*db.Appointment, error) {
	item, err := s.appointments.GetAppointment(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return item, nil
}

// Create 新建日程
func (s *AppointmentService) Create(ctx context.Context, userID string, input AppointmentInput) (*db.Appointment, error) {
	if err := validateAppointmentInput(input); err != nil {
		return nil, err
	}

	item := db.Appointment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		Location:  strings.TrimSpace(input.Location),
		Date:      input.Date,
		Reminder:  input.Reminder,
		CreatedAt: s.now(),
	}
	if err := s.appointments.InsertAppointment(ctx, &item); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &item, nil
}

// Update 覆盖日程字段
func (s *AppointmentService) Update(ctx context.Context, userID, id string, input AppointmentInput) (*db.Appointment, error) {
	if err := validateAppointmentInput(input); err != nil {
		return nil, err
	}

	err := s.appointments.UpdateAppointment(ctx, userID, id, store.Fields{
		"title":    strings.TrimSpace(input.Title),
		"location": strings.TrimSpace(input.Location),
		"date":     input.Date,
		"reminder": input.Reminder,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.Get(ctx, userID, id)
}

// Delete 删除日程
func (s *AppointmentService) Delete(ctx context.Context, userID, id string) error {
	err := s.appointments.DeleteAppointment(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func validateAppointmentInput(input AppointmentInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: appointment title is required", ErrInvalidField)
	}
	if input.Date.IsZero() {
		return fmt.Errorf("%w: appointment date is required", ErrInvalidField)
	}
	return nil
}
