package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	engine    *gin.Engine
	api       *API
	backend   *store.GormStore
	snapshots *service.MemorySnapshots
	hub       *auth.Hub
	token     string
	userID    string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	backend := store.NewGormStore(gdb)
	t.Cleanup(func() { backend.Close(context.Background()) })

	snapshots := service.NewMemorySnapshots(0)
	hub := auth.NewHub()
	service.DropOnSignOut(hub, snapshots)

	api := NewAPI(backend, Options{
		Snapshots: snapshots,
		Hub:       hub,
		Tokens:    auth.NewIssuer("handler-test-secret", time.Hour),
		Location:  time.UTC,
		Clock:     func() time.Time { return testNow },
	})

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("handler-test-secret"))))
	r.Use(api.LocaleMiddleware())
	r.POST("/api/auth/register", api.Register)
	r.POST("/api/auth/login", api.Login)

	authed := r.Group("/api")
	authed.Use(api.AuthRequired())
	authed.POST("/auth/logout", api.Logout)
	authed.GET("/auth/me", api.Me)
	authed.GET("/items", api.ListItems)
	authed.POST("/items", api.AddItem)
	authed.PATCH("/items/:id", api.UpdateItem)
	authed.DELETE("/items/:id", api.DeleteItem)
	authed.POST("/items/:id/complete", api.CompleteItem)
	authed.POST("/items/:id/skip", api.SkipItem)
	authed.GET("/tasks", api.ListTasks)
	authed.GET("/tasks/:id", api.GetTask)
	authed.POST("/tasks", api.CreateTask)
	authed.PUT("/tasks/:id", api.UpdateTask)
	authed.DELETE("/tasks/:id", api.DeleteTask)
	authed.GET("/progress", api.GetCurrentProgress)
	authed.GET("/progress/history", api.ListProgressHistory)
	authed.POST("/habits", api.CreateHabit)
	authed.POST("/progress/:id/habits/:habitId/increment", api.IncrementHabit)
	authed.POST("/progress/:id/habits/:habitId/decrement", api.DecrementHabit)
	authed.DELETE("/progress/:id/habits/:habitId", api.DeleteHabit)
	authed.GET("/notifications", api.ListNotifications)
	authed.POST("/notifications", api.CreateNotification)
	authed.POST("/notifications/read-all", api.MarkAllNotificationsRead)
	authed.POST("/notifications/:id/read", api.MarkNotificationRead)
	authed.GET("/appointments", api.ListAppointments)
	authed.POST("/appointments", api.CreateAppointment)
	authed.PUT("/appointments/:id", api.UpdateAppointment)
	authed.DELETE("/appointments/:id", api.DeleteAppointment)
	authed.GET("/dashboard", api.GetDashboard)

	return &testEnv{engine: r, api: api, backend: backend, snapshots: snapshots, hub: hub}
}

// signIn registers a user and keeps its bearer token for later requests.
func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": "ana@example.com", "name": "Ana", "password": "segredo1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = e.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "segredo1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Token string  `json:"token"`
		User  db.User `json:"user"`
	}
	decodeBody(t, rr, &body)
	e.token = body.Token
	e.userID = body.User.ID
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		switch v := payload.(type) {
		case string:
			body.WriteString(v)
		default:
			if err := json.NewEncoder(&body).Encode(v); err != nil {
				t.Fatalf("encode payload: %v", err)
			}
		}
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

type itemsResponse struct {
	Items []struct {
		ID          string `json:"id"`
		Kind        string `json:"kind"`
		Name        string `json:"name"`
		Status      string `json:"status"`
		IsCompleted bool   `json:"is_completed"`
		Habit       *struct {
			ProgressID string `json:"progress_id"`
			Current    int    `json:"current"`
			Target     int    `json:"target"`
			Streak     int    `json:"streak"`
		} `json:"habit"`
	} `json:"items"`
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &body)
	return body.Error
}
