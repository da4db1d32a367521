package handler

import (
	"net/http"

	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/gin-gonic/gin"
)

type appointmentPayload struct {
	Title    string `json:"title" binding:"required,max=200"`
	Location string `json:"location" binding:"max=200"`
	Date     string `json:"date" binding:"required"`
	Reminder bool   `json:"reminder"`
}

// ListAppointments 按日期升序返回日程
func (a *API) ListAppointments(c *gin.Context) {
	s, _ := requestUser(c)
	items, err := a.appointments.List(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": items})
}

// GetAppointment 返回单个日程
func (a *API) GetAppointment(c *gin.Context) {
	s, _ := requestUser(c)
	item, err := a.appointments.Get(c.Request.Context(), s.UserID, c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": item})
}

// CreateAppointment 创建日程
func (a *API) CreateAppointment(c *gin.Context) {
	input, ok := a.parseAppointmentInput(c)
	if !ok {
		return
	}

	s, _ := requestUser(c)
	item, err := a.appointments.Create(c.Request.Context(), s.UserID, input)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"appointment": item})
}

// UpdateAppointment 更新日程
func (a *API) UpdateAppointment(c *gin.Context) {
	input, ok := a.parseAppointmentInput(c)
	if !ok {
		return
	}

	s, _ := requestUser(c)
	item, err := a.appointments.Update(c.Request.Context(), s.UserID, c.Param("id"), input)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": item})
}

// DeleteAppointment 删除日程
func (a *API) DeleteAppointment(c *gin.Context) {
	s, _ := requestUser(c)
	if err := a.appointments.Delete(c.Request.Context(), s.UserID, c.Param("id")); err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *API) parseAppointmentInput(c *gin.Context) (service.AppointmentInput, bool) {
	var payload appointmentPayload
	if !bindJSON(c, &payload) {
		return service.AppointmentInput{}, false
	}

	date, err := parseDateValue(payload.Date, a.loc)
	if err != nil || date == nil {
		respondError(c, http.StatusBadRequest, tr(c, msgInvalidDate))
		return service.AppointmentInput{}, false
	}

	return service.AppointmentInput{
		Title:    payload.Title,
		Location: payload.Location,
		Date:     *date,
		Reminder: payload.Reminder,
	}, true
}
