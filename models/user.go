package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a loyalty member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	CPF          string `gorm:"size:14" json:"cpf,omitempty"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	AvatarURL    string `gorm:"size:512" json:"avatar_url,omitempty"`
	// Loyalty ledger. Dates are calendar days stored as midnight UTC.
	ContractStartDate *time.Time `gorm:"type:date" json:"contract_start_date"`
	ContractEndDate   *time.Time `gorm:"type:date" json:"contract_end_date"`
	DailyPointsRate   int        `gorm:"not null;default:2800" json:"daily_points_rate"`
	PointsBase        int64      `gorm:"not null;default:0" json:"points_base"`
	LastAccrualDate   *time.Time `gorm:"type:date" json:"last_accrual_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
