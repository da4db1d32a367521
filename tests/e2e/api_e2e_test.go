package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/handler"
	"github.com/astrathh/taskify-habitory/internal/router"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const baseURL = "http://taskify.test"

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

type e2eSuite struct {
	handler http.Handler
	browser httpClient
	backend store.Backend
}

func setupSuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	backend := store.NewGormStore(gdb)
	t.Cleanup(func() { backend.Close(context.Background()) })

	snapshots := service.NewMemorySnapshots(time.Hour)
	hub := auth.NewHub()
	service.DropOnSignOut(hub, snapshots)

	api := handler.NewAPI(backend, handler.Options{
		Snapshots: snapshots,
		Hub:       hub,
		Tokens:    auth.NewIssuer("e2e-secret", time.Hour),
		Location:  time.UTC,
	})
	r := router.SetupRouter(api, router.Options{SessionSecret: "e2e-secret"})

	return &e2eSuite{handler: r, browser: newLocalClient(r, true), backend: backend}
}

func (s *e2eSuite) call(t *testing.T, client httpClient, method, path string, payload any, dst any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if dst != nil {
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, dst); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode
}

type itemList struct {
	Items []struct {
		ID     string `json:"id"`
		Kind   string `json:"kind"`
		Name   string `json:"name"`
		Status string `json:"status"`
		Habit  *struct {
			ProgressID string `json:"progress_id"`
			Current    int    `json:"current"`
		} `json:"habit"`
	} `json:"items"`
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func TestTrackableFlow(t *testing.T) {
	s := setupSuite(t)

	if code := s.call(t, s.browser, http.MethodGet, "/api/items", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", code)
	}

	if code := s.call(t, s.browser, http.MethodPost, "/api/auth/register", gin.H{"email": "ana@example.com", "name": "Ana", "password": "segredo1"}, nil); code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", code)
	}
	if code := s.call(t, s.browser, http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "segredo1"}, nil); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}

	var items itemList
	for _, payload := range []gin.H{
		{"type": "task", "name": "Enviar relatório", "due_date": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339), "priority": "alta"},
		{"type": "habit", "name": "Água", "target": 4, "current": 2},
		{"type": "habit", "name": "Leitura", "target": 2},
	} {
		if code := s.call(t, s.browser, http.MethodPost, "/api/items", payload, &items); code != http.StatusCreated {
			t.Fatalf("add %v: expected 201, got %d", payload["name"], code)
		}
	}
	if items.Total != 3 || items.Items[0].Kind != "task" || items.Items[1].Name != "Água" || items.Items[2].Name != "Leitura" {
		t.Fatalf("unexpected item order: %+v", items.Items)
	}

	reading := items.Items[2]
	if code := s.call(t, s.browser, http.MethodPost, "/api/items/"+reading.ID+"/complete", nil, &items); code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", code)
	}
	if items.Completed != 1 {
		t.Fatalf("expected one completed item, got %d", items.Completed)
	}

	var progress struct {
		Progress struct {
			ID      string `json:"id"`
			Overall int    `json:"overall"`
		} `json:"progress"`
	}
	s.call(t, s.browser, http.MethodGet, "/api/progress", nil, &progress)
	if progress.Progress.Overall != 75 {
		t.Fatalf("expected overall 75 (50%% and 100%%), got %d", progress.Progress.Overall)
	}

	water := items.Items[1]
	if code := s.call(t, s.browser, http.MethodPost, "/api/items/"+water.ID+"/skip", nil, &items); code != http.StatusOK {
		t.Fatalf("skip: expected 200, got %d", code)
	}
	if items.Items[1].Status != "skipped" || items.Items[1].Habit.Current != 2 {
		t.Fatalf("expected skipped habit with progress kept, got %+v", items.Items[1])
	}

	if code := s.call(t, s.browser, http.MethodDelete, "/api/items/"+reading.ID, nil, &items); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	s.call(t, s.browser, http.MethodGet, "/api/progress", nil, &progress)
	if progress.Progress.Overall != 50 {
		t.Fatalf("expected overall 50 after removing the completed habit, got %d", progress.Progress.Overall)
	}

	var dashboard struct {
		Dashboard struct {
			Tasks struct {
				Total int `json:"total"`
			} `json:"tasks"`
			Habits struct {
				Total int `json:"total"`
			} `json:"habits"`
		} `json:"dashboard"`
	}
	if code := s.call(t, s.browser, http.MethodGet, "/api/dashboard", nil, &dashboard); code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", code)
	}
	if dashboard.Dashboard.Tasks.Total != 1 || dashboard.Dashboard.Habits.Total != 1 {
		t.Fatalf("unexpected dashboard: %+v", dashboard.Dashboard)
	}

	if code := s.call(t, s.browser, http.MethodPost, "/api/auth/logout", nil, nil); code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}
	if code := s.call(t, s.browser, http.MethodGet, "/api/items", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", code)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := setupSuite(t)
	ana := newLocalClient(s.handler, true)
	bia := newLocalClient(s.handler, true)

	for _, u := range []struct {
		client httpClient
		email  string
	}{{ana, "ana@example.com"}, {bia, "bia@example.com"}} {
		s.call(t, u.client, http.MethodPost, "/api/auth/register", gin.H{"email": u.email, "password": "segredo1"}, nil)
		if code := s.call(t, u.client, http.MethodPost, "/api/auth/login", gin.H{"email": u.email, "password": "segredo1"}, nil); code != http.StatusOK {
			t.Fatalf("login %s: expected 200, got %d", u.email, code)
		}
	}

	var items itemList
	s.call(t, ana, http.MethodPost, "/api/items", gin.H{"type": "task", "name": "Privada"}, &items)
	taskID := items.Items[0].ID

	s.call(t, bia, http.MethodGet, "/api/items", nil, &items)
	if items.Total != 0 {
		t.Fatalf("expected empty list for another user, got %+v", items.Items)
	}
	if code := s.call(t, bia, http.MethodPost, "/api/items/"+taskID+"/complete", nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's item, got %d", code)
	}
	if code := s.call(t, bia, http.MethodDelete, "/api/tasks/"+taskID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting another user's task, got %d", code)
	}
}
