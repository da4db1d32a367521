package handler

import (
	"context"
	"net/http"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/tracker"
	"github.com/gin-gonic/gin"
)

type habitPayload struct {
	Name    string `json:"name" binding:"required,max=120"`
	Target  int    `json:"target" binding:"min=0"`
	Current int    `json:"current" binding:"min=0"`
	Unit    string `json:"unit" binding:"max=40"`
	Streak  int    `json:"streak" binding:"min=0"`
	Month   string `json:"month"`
}

// GetCurrentProgress 返回本月进度文档，不存在时创建
func (a *API) GetCurrentProgress(c *gin.Context) {
	s, _ := requestUser(c)
	doc, err := a.habits.EnsureMonth(c.Request.Context(), s.UserID, c.Query("month"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondHabitSuccess(c, http.StatusOK, gin.H{"progress": progressToPayload(*doc)})
}

// ListProgressHistory 返回所有月份，最新在前
func (a *API) ListProgressHistory(c *gin.Context) {
	s, _ := requestUser(c)
	docs, err := a.habits.History(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		items = append(items, progressToPayload(doc))
	}
	respondHabitSuccess(c, http.StatusOK, gin.H{"history": items})
}

// CreateHabit 向指定月份（默认本月）追加习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload) {
		return
	}

	s, _ := requestUser(c)
	doc, habit, err := a.habits.AddHabitToMonth(c.Request.Context(), s.UserID, payload.Month, service.HabitInput{
		Name:    payload.Name,
		Target:  payload.Target,
		Current: payload.Current,
		Unit:    payload.Unit,
		Streak:  payload.Streak,
	})
	if err != nil {
		a.handleError(c, err)
		return
	}

	a.items.Invalidate(c.Request.Context(), s.UserID)
	respondHabitSuccess(c, http.StatusCreated, gin.H{
		"habit":    habitToPayload(*habit),
		"progress": progressToPayload(*doc),
	})
}

// IncrementHabit 进度加一
func (a *API) IncrementHabit(c *gin.Context) {
	a.mutateHabit(c, a.habits.Increment)
}

// DecrementHabit 进度减一
func (a *API) DecrementHabit(c *gin.Context) {
	a.mutateHabit(c, a.habits.Decrement)
}

// DeleteHabit 从月份中删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	a.mutateHabit(c, a.habits.RemoveHabit)
}

func (a *API) mutateHabit(c *gin.Context, fn func(ctx context.Context, userID, progressID, habitID string) (*db.MonthlyProgress, error)) {
	s, _ := requestUser(c)
	doc, err := fn(c.Request.Context(), s.UserID, c.Param("id"), c.Param("habitId"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	a.items.Invalidate(c.Request.Context(), s.UserID)
	respondHabitSuccess(c, http.StatusOK, gin.H{"progress": progressToPayload(*doc)})
}

func progressToPayload(doc db.MonthlyProgress) gin.H {
	habits := make([]gin.H, 0, len(doc.Habits))
	completed := 0
	for _, h := range doc.Habits {
		if tracker.IsHabitCompleted(h) {
			completed++
		}
		habits = append(habits, habitToPayload(h))
	}
	return gin.H{
		"id":        doc.ID,
		"month":     doc.Month,
		"overall":   doc.Overall,
		"completed": completed,
		"habits":    habits,
	}
}

func habitToPayload(h db.Habit) gin.H {
	return gin.H{
		"id":           h.ID,
		"name":         h.Name,
		"target":       h.Target,
		"current":      h.Current,
		"unit":         h.Unit,
		"streak":       h.Streak,
		"percent":      tracker.HabitPercent(h),
		"status":       tracker.HabitStatus(h),
		"is_completed": tracker.IsHabitCompleted(h),
	}
}

func respondHabitSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
