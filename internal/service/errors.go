package service

import "errors"

var (
	// ErrNotAuthenticated 请求上下文中没有登录会话
	ErrNotAuthenticated = errors.New("login required")
	// ErrItemNotFound 条目 id 不在最近一次对账结果中
	ErrItemNotFound = errors.New("item not found")
	// ErrTaskNotFound 在指定任务不存在时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrProgressNotFound 月度进度文档不存在
	ErrProgressNotFound = errors.New("monthly progress not found")
	// ErrHabitExists 同一月份内习惯名称重复
	ErrHabitExists = errors.New("habit already exists for this month")
	// ErrAlreadyCompleted 条目已完成，不再写入
	ErrAlreadyCompleted = errors.New("item already completed")
	// ErrInvalidTarget 目标值非正的习惯无法完成或递增
	ErrInvalidTarget = errors.New("habit target must be positive")
	// ErrInvalidField 字段值或类型不合法
	ErrInvalidField = errors.New("invalid field")
	// ErrNotificationNotFound 通知不存在
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrAppointmentNotFound 日程不存在
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")
)
