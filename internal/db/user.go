package db

import "time"

// User 定义了账号模型，密码为 bcrypt 哈希
type User struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Password  string    `gorm:"not null" bson:"password" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
