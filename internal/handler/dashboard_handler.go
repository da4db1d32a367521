package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard 返回首页统计，并在有逾期任务时补发一条提醒
func (a *API) GetDashboard(c *gin.Context) {
	s, _ := requestUser(c)
	ctx := c.Request.Context()

	if _, err := a.dashboard.NotifyOverdue(ctx, s.UserID); err != nil {
		a.log.WithUser(s.UserID).Warn("overdue notification failed", "error", err)
	}

	summary, err := a.dashboard.Summary(ctx, s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}

	unread, err := a.notifications.UnreadCount(ctx, s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dashboard":    summary,
		"unread_count": unread,
	})
}
