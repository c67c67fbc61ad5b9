package model

import "time"

// MenuItem is one entry of the read-only menu catalog. The floor service
// only resolves items against it; editing lives in the menu subsystem.
type MenuItem struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Category  string    `gorm:"size:64" json:"category"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
