package handler

import (
	"net/http"

	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/gin-gonic/gin"
)

type taskPayload struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"omitempty,task_category"`
	Status      string `json:"status" binding:"omitempty,task_status"`
	Priority    string `json:"priority" binding:"omitempty,task_priority"`
	DueDate     string `json:"due_date"`
}

// ListTasks 返回任务列表，支持 status/category/priority/search 过滤
func (a *API) ListTasks(c *gin.Context) {
	s, _ := requestUser(c)
	tasks, err := a.tasks.List(c.Request.Context(), s.UserID, service.TaskFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	})
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask 返回单个任务，附带渲染后的描述
func (a *API) GetTask(c *gin.Context) {
	s, _ := requestUser(c)
	task, err := a.tasks.Get(c.Request.Context(), s.UserID, c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task":             task,
		"description_html": service.RenderDescription(task.Description),
	})
}

// CreateTask 创建任务
func (a *API) CreateTask(c *gin.Context) {
	input, ok := a.parseTaskInput(c)
	if !ok {
		return
	}

	s, _ := requestUser(c)
	task, err := a.tasks.Create(c.Request.Context(), s.UserID, input)
	if err != nil {
		a.handleError(c, err)
		return
	}
	a.items.Invalidate(c.Request.Context(), s.UserID)
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// UpdateTask 更新任务
func (a *API) UpdateTask(c *gin.Context) {
	input, ok := a.parseTaskInput(c)
	if !ok {
		return
	}

	s, _ := requestUser(c)
	task, err := a.tasks.Update(c.Request.Context(), s.UserID, c.Param("id"), input)
	if err != nil {
		a.handleError(c, err)
		return
	}
	a.items.Invalidate(c.Request.Context(), s.UserID)
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask 删除任务
func (a *API) DeleteTask(c *gin.Context) {
	s, _ := requestUser(c)
	if err := a.tasks.Delete(c.Request.Context(), s.UserID, c.Param("id")); err != nil {
		a.handleError(c, err)
		return
	}
	a.items.Invalidate(c.Request.Context(), s.UserID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *API) parseTaskInput(c *gin.Context) (service.TaskInput, bool) {
	var payload taskPayload
	if !bindJSON(c, &payload) {
		return service.TaskInput{}, false
	}

	due, err := parseDateValue(payload.DueDate, a.loc)
	if err != nil {
		respondError(c, http.StatusBadRequest, tr(c, msgInvalidDate))
		return service.TaskInput{}, false
	}

	return service.TaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     due,
	}, true
}
