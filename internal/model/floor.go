package model

import "time"

// Floor represents one physical floor of an outlet.
type Floor struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	OutletID  string    `gorm:"index;size:64;not null" json:"outletId"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Tables []DiningTable `gorm:"foreignKey:FloorID" json:"-"`
}
