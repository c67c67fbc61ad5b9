package model

import "time"

// OrderType distinguishes dine-in tickets keyed to a table or club from
// standalone takeaway tickets.
type OrderType string

const (
	OrderDineIn   OrderType = "DineIn"
	OrderTakeaway OrderType = "Takeaway"
)

// TicketLineStatus is the preparation stage of one ticket line.
// Transitions are strictly New -> Preparing -> Ready.
type TicketLineStatus string

const (
	TicketLineNew       TicketLineStatus = "New"
	TicketLinePreparing TicketLineStatus = "Preparing"
	TicketLineReady     TicketLineStatus = "Ready"
)

// KitchenTicket is the kitchen-facing aggregate of everything sent for one
// table/club or one takeaway order.
type KitchenTicket struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	OutletID      string    `gorm:"index;size:64;not null" json:"outletId"`
	OrderType     OrderType `gorm:"size:16;not null" json:"orderType"`
	TableOrClubID *string   `gorm:"index;size:64" json:"tableOrClubId"` // nil for takeaway
	DisplayLabel  string    `gorm:"size:256;not null" json:"displayLabel"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"-"`

	// Associations
	Lines []TicketLine `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"lines"`
}

// TicketLine is one item group on a kitchen ticket.
type TicketLine struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"-"`
	TicketID  string           `gorm:"index;size:64;not null" json:"-"`
	Position  int              `gorm:"not null" json:"-"`
	Name      string           `gorm:"size:128;not null" json:"name"`
	Quantity  uint             `gorm:"not null" json:"quantity"`
	Status    TicketLineStatus `gorm:"size:16;not null;default:New" json:"status"`
	CreatedAt time.Time        `gorm:"not null" json:"-"`
}

// TakeawaySequence backs the per-outlet "Takeaway #N" display labels.
type TakeawaySequence struct {
	OutletID string `gorm:"primaryKey;size:64"`
	Next     int64  `gorm:"not null"`
}
