package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/tracker"
	"github.com/gin-gonic/gin"
)

type addItemPayload struct {
	Type        string `json:"type" binding:"required,oneof=task habit"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"omitempty,task_category"`
	Status      string `json:"status" binding:"omitempty,task_status"`
	Priority    string `json:"priority" binding:"omitempty,task_priority"`
	DueDate     string `json:"due_date"`
	Target      int    `json:"target" binding:"min=0"`
	Current     int    `json:"current" binding:"min=0"`
	Unit        string `json:"unit" binding:"max=40"`
	Streak      int    `json:"streak" binding:"min=0"`
}

// ListItems 返回任务与本月习惯合并后的列表，支持 type/status/priority 过滤
func (a *API) ListItems(c *gin.Context) {
	filter := tracker.Filter{
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		kind, ok := tracker.ParseKind(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, tr(c, msgInvalidKind))
			return
		}
		filter.Kind = kind
	}

	items, err := a.coordinator.Items(c.Request.Context())
	if err != nil {
		a.handleError(c, err)
		return
	}

	respondItems(c, http.StatusOK, filter.Apply(items))
}

// AddItem 新建任务或向本月追加习惯
func (a *API) AddItem(c *gin.Context) {
	var payload addItemPayload
	if !bindJSON(c, &payload) {
		return
	}

	kind, _ := tracker.ParseKind(payload.Type)
	in := service.NewItem{Kind: kind}
	switch kind {
	case tracker.KindTask:
		due, err := parseDateValue(payload.DueDate, a.loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, tr(c, msgInvalidDate))
			return
		}
		in.Task = service.TaskInput{
			Title:       payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			Status:      payload.Status,
			Priority:    payload.Priority,
			DueDate:     due,
		}
	case tracker.KindHabit:
		in.Habit = service.HabitInput{
			Name:    payload.Name,
			Target:  payload.Target,
			Current: payload.Current,
			Unit:    payload.Unit,
			Streak:  payload.Streak,
		}
	}

	items, err := a.coordinator.Add(c.Request.Context(), in)
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondItems(c, http.StatusCreated, items)
}

// CompleteItem 完成条目
func (a *API) CompleteItem(c *gin.Context) {
	items, err := a.coordinator.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondItems(c, http.StatusOK, items)
}

// SkipItem 跳过条目
func (a *API) SkipItem(c *gin.Context) {
	items, err := a.coordinator.Skip(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondItems(c, http.StatusOK, items)
}

// UpdateItem applies a partial JSON object to the item. Numbers are decoded
// as json.Number so fractional values can be rejected.
func (a *API) UpdateItem(c *gin.Context) {
	fields, ok := decodeFields(c)
	if !ok {
		return
	}

	items, err := a.coordinator.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondItems(c, http.StatusOK, items)
}

// DeleteItem 删除条目
func (a *API) DeleteItem(c *gin.Context) {
	items, err := a.coordinator.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	respondItems(c, http.StatusOK, items)
}

func decodeFields(c *gin.Context) (map[string]any, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		respondError(c, http.StatusBadRequest, tr(c, msgInvalidRequest))
		return nil, false
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		respondError(c, http.StatusBadRequest, tr(c, msgInvalidRequest))
		return nil, false
	}
	return fields, true
}

func respondItems(c *gin.Context, status int, items []tracker.Item) {
	if items == nil {
		items = []tracker.Item{}
	}
	completed := 0
	for _, item := range items {
		if item.IsCompleted {
			completed++
		}
	}
	c.JSON(status, gin.H{
		"items":     items,
		"total":     len(items),
		"completed": completed,
	})
}
