package model

import "time"

// TableStatus is the lifecycle state of a dining table.
type TableStatus string

const (
	TableAvailable      TableStatus = "Available"
	TableSeated         TableStatus = "Seated"
	TableOrdered        TableStatus = "Ordered"
	TableNeedsAttention TableStatus = "NeedsAttention"
	TableFoodReady      TableStatus = "FoodReady"
)

// DiningTable represents a physical seating unit on a floor.
//
// Invariant: Status == Available iff ActiveSeatingID == nil iff SeatedAt == nil.
type DiningTable struct {
	ID               string      `gorm:"primaryKey;size:64" json:"id"`
	Name             string      `gorm:"size:128;not null" json:"name"`
	Capacity         uint        `gorm:"not null" json:"capacity"`
	FloorID          string      `gorm:"index;size:64;not null" json:"floorId"`
	Status           TableStatus `gorm:"size:32;not null;default:Available" json:"status"`
	AssignedWaiterID string      `gorm:"size:64" json:"assignedWaiterId"`
	SeatedAt         *time.Time  `json:"seatedAt"`
	ActiveSeatingID  *string     `gorm:"size:64" json:"activeSeatingId"`
	ClubID           *string     `gorm:"index;size:64" json:"clubId"`
	CreatedAt        time.Time   `gorm:"not null" json:"-"`
	UpdatedAt        time.Time   `gorm:"not null" json:"-"`
}

// SeatingKey returns the key that joins this table to its seating and
// kitchen ticket: the club id when the table is clubbed, its own id otherwise.
func (t *DiningTable) SeatingKey() string {
	if t.ClubID != nil {
		return *t.ClubID
	}
	return t.ID
}

// Occupied reports whether the table currently hosts a seating.
func (t *DiningTable) Occupied() bool {
	return t.ActiveSeatingID != nil
}
