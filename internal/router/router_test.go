package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/handler"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	backend := store.NewGormStore(gdb)
	t.Cleanup(func() { backend.Close(context.Background()) })

	var logs bytes.Buffer
	log := logging.NewWriterLogger(&logs, "DEBUG")
	api := handler.NewAPI(backend, handler.Options{Logger: log, Location: time.UTC})
	return SetupRouter(api, Options{SessionSecret: "test-secret", Logger: log}), &logs
}

func TestSetupRouterPing(t *testing.T) {
	r, logs := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(logs.String(), `"path":"/ping"`) {
		t.Fatalf("expected request to be logged, got %q", logs.String())
	}
}

func TestSetupRouterRequiresLogin(t *testing.T) {
	r, _ := setupTestRouter(t)

	for _, path := range []string{"/api/items", "/api/tasks", "/api/progress", "/api/dashboard", "/api/notifications"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "É necessário entrar na conta") {
			t.Fatalf("%s: expected portuguese default message, got %s", path, rr.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), "Login required") {
		t.Fatalf("expected english message, got %s", rr.Body.String())
	}
	if rr.Header().Get("Content-Language") != "en-US" {
		t.Fatalf("expected Content-Language en-US, got %q", rr.Header().Get("Content-Language"))
	}
}

func TestSetupRouterServesMetrics(t *testing.T) {
	r, _ := setupTestRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "taskify_http_requests_total") {
		t.Fatal("expected http request counter in metrics output")
	}
}
