package router

import (
	"net/http"
	"time"

	"github.com/astrathh/taskify-habitory/internal/handler"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "taskify_session"

// Options 路由配置
type Options struct {
	SessionSecret string
	SecureCookie  bool
	Logger        *logging.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger), metrics.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/register", api.Register)
		apiGroup.POST("/auth/login", api.Login)

		// 需要认证的路由
		authed := apiGroup.Group("")
		authed.Use(api.AuthRequired())
		{
			authed.POST("/auth/logout", api.Logout)
			authed.GET("/auth/me", api.Me)
			authed.PUT("/auth/password", api.ChangePassword)

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
			authed.GET("/notifications/unread", api.UnreadNotifications)
			authed.POST("/notifications", api.CreateNotification)
			authed.POST("/notifications/read-all", api.MarkAllNotificationsRead)
			authed.POST("/notifications/:id/read", api.MarkNotificationRead)
			authed.DELETE("/notifications/:id", api.DeleteNotification)

			authed.GET("/appointments", api.ListAppointments)
			authed.GET("/appointments/:id", api.GetAppointment)
			authed.POST("/appointments", api.CreateAppointment)
			authed.PUT("/appointments/:id", api.UpdateAppointment)
			authed.DELETE("/appointments/:id", api.DeleteAppointment)

			authed.GET("/dashboard", api.GetDashboard)
		}
	}

	return r
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时
func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http request", args...)
		case status >= http.StatusBadRequest:
			log.Warn("http request", args...)
		default:
			log.Debug("http request", args...)
		}
	}
}
