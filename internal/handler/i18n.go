package handler

import (
	"errors"
	"net/http"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/locale"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/gin-gonic/gin"
)

type messageKey int

const (
	msgInvalidRequest messageKey = iota
	msgLoginRequired
	msgInvalidCredentials
	msgEmailTaken
	msgItemNotFound
	msgTaskNotFound
	msgHabitNotFound
	msgProgressNotFound
	msgHabitExists
	msgAlreadyCompleted
	msgInvalidTarget
	msgInvalidField
	msgNotificationNotFound
	msgAppointmentNotFound
	msgInvalidKind
	msgInvalidDate
	msgSessionFailed
	msgOperationFailed
)

// 每条消息的英文与葡萄牙文文案
var messages = map[messageKey][2]string{
	msgInvalidRequest:       {"Invalid request", "Requisição inválida"},
	msgLoginRequired:        {"Login required", "É necessário entrar na conta"},
	msgInvalidCredentials:   {"Invalid email or password", "E-mail ou senha inválidos"},
	msgEmailTaken:           {"Email already registered", "E-mail já cadastrado"},
	msgItemNotFound:         {"Item not found", "Item não encontrado"},
	msgTaskNotFound:         {"Task not found", "Tarefa não encontrada"},
	msgHabitNotFound:        {"Habit not found", "Hábito não encontrado"},
	msgProgressNotFound:     {"Monthly progress not found", "Progresso do mês não encontrado"},
	msgHabitExists:          {"A habit with this name already exists this month", "Já existe um hábito com esse nome neste mês"},
	msgAlreadyCompleted:     {"This item is already completed", "Este item já foi concluído"},
	msgInvalidTarget:        {"The habit needs a positive target", "O hábito precisa de uma meta positiva"},
	msgInvalidField:         {"Invalid field value", "Valor de campo inválido"},
	msgNotificationNotFound: {"Notification not found", "Notificação não encontrada"},
	msgAppointmentNotFound:  {"Appointment not found", "Compromisso não encontrado"},
	msgInvalidKind:          {"Unknown item type", "Tipo de item desconhecido"},
	msgInvalidDate:          {"Invalid date", "Data inválida"},
	msgSessionFailed:        {"Could not save the session", "Não foi possível salvar a sessão"},
	msgOperationFailed:      {"Operation failed", "Falha na operação"},
}

func tr(c *gin.Context, key messageKey) string {
	pair := messages[key]
	return locale.Pick(requestLanguage(c), pair[0], pair[1])
}

// errorStatus 将业务错误映射为状态码与文案
func errorStatus(err error) (int, messageKey) {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, msgLoginRequired
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, service.ErrItemNotFound):
		return http.StatusNotFound, msgItemNotFound
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, msgTaskNotFound
	case errors.Is(err, service.ErrHabitNotFound):
		return http.StatusNotFound, msgHabitNotFound
	case errors.Is(err, service.ErrProgressNotFound):
		return http.StatusNotFound, msgProgressNotFound
	case errors.Is(err, service.ErrNotificationNotFound):
		return http.StatusNotFound, msgNotificationNotFound
	case errors.Is(err, service.ErrAppointmentNotFound):
		return http.StatusNotFound, msgAppointmentNotFound
	case errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict, msgAlreadyCompleted
	case errors.Is(err, service.ErrHabitExists):
		return http.StatusConflict, msgHabitExists
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, msgEmailTaken
	case errors.Is(err, service.ErrInvalidTarget):
		return http.StatusBadRequest, msgInvalidTarget
	case errors.Is(err, service.ErrInvalidField):
		return http.StatusBadRequest, msgInvalidField
	default:
		return http.StatusInternalServerError, msgOperationFailed
	}
}

func (a *API) handleError(c *gin.Context, err error) {
	status, key := errorStatus(err)
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.Error(err)
	respondError(c, status, tr(c, key))
}
