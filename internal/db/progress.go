package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// HabitStatusSkipped 标记当月被跳过的习惯，进度变化时清除
const HabitStatusSkipped = "skipped"

// Habit 只存在于 MonthlyProgress 文档内部
type Habit struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Target  int    `bson:"target" json:"target"`
	Current int    `bson:"current" json:"current"`
	Unit    string `bson:"unit" json:"unit"`
	Streak  int    `bson:"streak" json:"streak"`
	Status  string `bson:"status,omitempty" json:"status,omitempty"`
}

// HabitList 以 JSON 文本形式存储在 progress.habits 列
type HabitList []Habit

// Value implements driver.Valuer.
func (l HabitList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]Habit(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *HabitList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = HabitList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan habit list: unsupported type %T", src)
	}

	if len(data) == 0 {
		*l = HabitList{}
		return nil
	}

	var habits []Habit
	if err := json.Unmarshal(data, &habits); err != nil {
		return fmt.Errorf("scan habit list: %w", err)
	}
	*l = habits
	return nil
}

// Clone returns an independent copy so callers can edit without touching the original.
func (l HabitList) Clone() HabitList {
	out := make(HabitList, len(l))
	copy(out, l)
	return out
}

// MonthlyProgress 每个用户每月一条，user_id + month 唯一
// Overall 为派生字段，只能通过重新计算写入
type MonthlyProgress struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_progress_user_month" bson:"user_id" json:"user_id"`
	Month     string    `gorm:"not null;uniqueIndex:idx_progress_user_month" bson:"month" json:"month"`
	Habits    HabitList `gorm:"type:text" bson:"habits" json:"habits"`
	Overall   int       `bson:"overall" json:"overall"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName keeps the hosted-backend table name.
func (MonthlyProgress) TableName() string {
	return "progress"
}
