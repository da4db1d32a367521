package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppointmentServiceCRUD(t *testing.T) {
	svc := NewAppointmentService(setupTestStore(t))
	ctx := context.Background()

	later, err := svc.Create(ctx, "u-1", AppointmentInput{Title: "Dentista", Location: "Centro", Date: testNow.Add(72 * time.Hour), Reminder: true})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, "u-1", AppointmentInput{Title: "Reunião", Date: testNow.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, "u-1", AppointmentInput{Title: "Passado", Date: testNow.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	items, err := svc.List(ctx, "u-1")
	if err != nil || len(items) != 3 {
		t.Fatalf("expected 3 appointments, got %d (%v)", len(items), err)
	}
	if items[0].Title != "Passado" || items[2].Title != "Dentista" {
		t.Fatalf("expected ascending date order, got %s..%s", items[0].Title, items[2].Title)
	}

	upcoming, err := svc.Upcoming(ctx, "u-1", testNow, 1)
	if err != nil || len(upcoming) != 1 || upcoming[0].Title != "Reunião" {
		t.Fatalf("unexpected upcoming: %+v (%v)", upcoming, err)
	}

	updated, err := svc.Update(ctx, "u-1", later.ID, AppointmentInput{Title: "Dentista (retorno)", Date: later.Date, Reminder: false})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Dentista (retorno)" || updated.Reminder || updated.Location != "" {
		t.Fatalf("unexpected appointment after update: %+v", updated)
	}

	if _, err := svc.Get(ctx, "u-2", later.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound for another user, got %v", err)
	}
	if err := svc.Delete(ctx, "u-1", later.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, "u-1", later.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestAppointmentServiceValidation(t *testing.T) {
	svc := NewAppointmentService(setupTestStore(t))
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u-1", AppointmentInput{Title: "", Date: testNow}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for title, got %v", err)
	}
	if _, err := svc.Create(ctx, "u-1", AppointmentInput{Title: "Dentista"}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for date, got %v", err)
	}
}
