package models

import "time"

// UserBonus records a one-time-per-period bonus. The (user_id, code) pair is unique
// and is the only authority on whether a period's bonus was granted.
type UserBonus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_bonus_code" json:"user_id"`
	Code      string    `gorm:"size:64;not null;uniqueIndex:idx_user_bonus_code" json:"code"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`
}
