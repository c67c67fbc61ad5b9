package model

import "time"

// SeatingStatus is the lifecycle state of a seating. Closed is terminal.
type SeatingStatus string

const (
	SeatingOpen   SeatingStatus = "Open"
	SeatingClosed SeatingStatus = "Closed"
)

// OrderLineStatus is the state of a single billed line.
type OrderLineStatus string

const (
	LineOrdered   OrderLineStatus = "Ordered"
	LineCancelled OrderLineStatus = "Cancelled"
)

// Seating is one guest party's running bill, keyed by a table id or club id.
type Seating struct {
	ID            string        `gorm:"primaryKey;size:64" json:"id"`
	TableOrClubID string        `gorm:"index;size:64;not null" json:"tableOrClubId"`
	WaiterID      string        `gorm:"size:64;not null" json:"waiterId"`
	Covers        uint          `gorm:"not null" json:"covers"`
	Total         float64       `gorm:"not null" json:"total"`
	Status        SeatingStatus `gorm:"size:16;not null;default:Open" json:"status"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"not null" json:"-"`

	// Associations
	Lines []OrderLine `gorm:"foreignKey:SeatingID;constraint:OnDelete:CASCADE" json:"lines"`
}

// OrderLine is one item quantity on a seating's bill. It is immutable after
// creation except for the one-way Ordered -> Cancelled transition.
type OrderLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SeatingID string          `gorm:"index;size:64;not null" json:"-"`
	Position  int             `gorm:"not null" json:"-"`
	ItemID    string          `gorm:"size:64;not null" json:"itemId"`
	Name      string          `gorm:"size:128;not null" json:"name"`
	UnitPrice float64         `gorm:"not null" json:"unitPrice"`
	Quantity  uint            `gorm:"not null" json:"quantity"`
	Status    OrderLineStatus `gorm:"size:16;not null;default:Ordered" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"-"`
}

// Amount is the line's contribution to the seating total while it is Ordered.
func (l *OrderLine) Amount() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// OrderedTotal recomputes the total from line state. The stored Total is
// maintained incrementally; tests compare the two to catch drift.
func (s *Seating) OrderedTotal() float64 {
	var sum float64
	for _, l := range s.Lines {
		if l.Status == LineOrdered {
			sum += l.Amount()
		}
	}
	return sum
}
