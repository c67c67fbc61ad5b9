package model

import "time"

// ActivityEntry is one immutable audit record. The table is append-only;
// the floor service only ever writes to it.
type ActivityEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   string    `gorm:"size:64;not null" json:"actorId"`
	ActorRole string    `gorm:"size:64;not null" json:"actorRole"`
	OutletID  string    `gorm:"index;size:64;not null" json:"outletId"`
	Action    string    `gorm:"size:64;not null" json:"action"`
	Details   string    `gorm:"size:512" json:"details"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
