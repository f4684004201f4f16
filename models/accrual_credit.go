package models

import "time"

// AccrualCredit is an append-only entry for one accrual run. At most one row exists
// per member and calendar day.
type AccrualCredit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_accrual_user_date" json:"user_id"`
	CreditDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_accrual_user_date" json:"credit_date"`
	Days       int       `gorm:"not null" json:"days"`
	Points     int64     `gorm:"not null" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}
