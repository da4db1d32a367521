package handler

import (
	"sync"

	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 注册请求体使用的枚举校验规则，空值交给 omitempty/required 处理
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("task_status", enumRule(db.IsValidTaskStatus))
		_ = v.RegisterValidation("task_priority", enumRule(db.IsValidTaskPriority))
		_ = v.RegisterValidation("task_category", enumRule(db.IsValidTaskCategory))
		_ = v.RegisterValidation("notification_type", enumRule(db.IsValidNotificationType))
	})
}

func enumRule(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || valid(value)
	}
}
