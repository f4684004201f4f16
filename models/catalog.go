package models

import "time"

// Item is a benefit category. The table name is kept from the collection-point era.
type Item struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:255;not null" json:"title"`
	Image string `gorm:"size:255;not null" json:"image"`
}

// Point is a physical partner location.
type Point struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Image     string    `gorm:"size:1024;not null" json:"image"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Whatsapp  string    `gorm:"size:32;not null" json:"whatsapp"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	City      string    `gorm:"size:128;not null;index" json:"city"`
	UF        string    `gorm:"column:uf;size:2;not null;index" json:"uf"`
	CreatedAt time.Time `json:"created_at"`
}

// PointItem links a point to the categories it serves.
type PointItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	PointID uint `gorm:"not null;index" json:"point_id"`
	ItemID  uint `gorm:"not null;index" json:"item_id"`
}

// Availability scopes for online benefits.
const (
	ScopeNational = "NATIONAL"
	ScopeState    = "STATE"
	ScopeCity     = "CITY"
)

// OnlineBenefit is an offer redeemable without visiting a location.
type OnlineBenefit struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"size:255;not null" json:"title"`
	PartnerName   string `gorm:"size:255;not null" json:"partner_name"`
	CategoryID    *uint  `gorm:"index" json:"category_id"`
	Details       string `gorm:"type:text" json:"details"`
	DiscountLabel string `gorm:"size:255" json:"discount_label"`
	Logo          string `gorm:"size:512" json:"logo"`
	Image         string `gorm:"size:512" json:"image"`
	Website       string `gorm:"size:512" json:"website"`
	Phone         string `gorm:"size:32" json:"phone"`
	// NATIONAL | STATE | CITY
	AvailabilityScope string `gorm:"size:16;not null;default:NATIONAL" json:"availability_scope"`
	// CSV: "CE,RN"
	States string `gorm:"size:512" json:"states"`
	// CSV: "Fortaleza:CE,Natal:RN"
	Cities    string    `gorm:"size:1024" json:"cities"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
