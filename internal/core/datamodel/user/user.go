package user

import "time"

type User struct {
	ID             int64     `gorm:"primaryKey"`
	Username       string    `gorm:"column:username;uniqueIndex;not null"`
	Email          *string   `gorm:"column:email;uniqueIndex"`
	Phone          *string   `gorm:"column:phone"`
	PhoneCanonical *string   `gorm:"column:phone_canonical;uniqueIndex"`
	PasswordHash   *string   `gorm:"column:password_hash"`
	PhoneVerified  bool      `gorm:"column:phone_verified;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }

type DeviceToken struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_device_tokens_user_token"`
	Token     string    `gorm:"column:token;not null;uniqueIndex:idx_device_tokens_user_token"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeviceToken) TableName() string { return "device_tokens" }
