package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, tr(c, msgInvalidRequest))
		return false
	}
	return true
}

// requestUser 返回中间件写入的会话用户
func requestUser(c *gin.Context) (auth.Session, bool) {
	return auth.SessionFrom(c.Request.Context())
}

// parseDateValue accepts RFC3339 or a plain date interpreted in loc.
func parseDateValue(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateFormat, value, loc)
	if err != nil {
		return nil, errors.New("invalid date")
	}
	return &t, nil
}
