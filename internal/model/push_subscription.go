package model

import "time"

// PushSubscription holds one waiter device's browser push subscription.
// Food-ready alerts for a table are delivered to every subscription
// registered for the table's assigned waiter.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	WaiterID  string    `gorm:"index;size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
