package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type notificationPayload struct {
	Message string `json:"message" binding:"required,max=500"`
	Type    string `json:"type" binding:"omitempty,notification_type"`
}

// ListNotifications 返回通知列表与未读数
func (a *API) ListNotifications(c *gin.Context) {
	s, _ := requestUser(c)
	summary, err := a.notifications.List(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UnreadNotifications 未读数
func (a *API) UnreadNotifications(c *gin.Context) {
	s, _ := requestUser(c)
	count, err := a.notifications.UnreadCount(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// CreateNotification 新建通知
func (a *API) CreateNotification(c *gin.Context) {
	var payload notificationPayload
	if !bindJSON(c, &payload) {
		return
	}

	s, _ := requestUser(c)
	n, err := a.notifications.Add(c.Request.Context(), s.UserID, payload.Message, payload.Type)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": n})
}

// MarkNotificationRead 标记已读
func (a *API) MarkNotificationRead(c *gin.Context) {
	s, _ := requestUser(c)
	if err := a.notifications.MarkRead(c.Request.Context(), s.UserID, c.Param("id")); err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// MarkAllNotificationsRead 全部标记已读
func (a *API) MarkAllNotificationsRead(c *gin.Context) {
	s, _ := requestUser(c)
	updated, err := a.notifications.MarkAllRead(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteNotification 删除通知
func (a *API) DeleteNotification(c *gin.Context) {
	s, _ := requestUser(c)
	if err := a.notifications.Delete(c.Request.Context(), s.UserID, c.Param("id")); err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
