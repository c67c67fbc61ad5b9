package activity

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"floor-service-backend/internal/model"
)

// Event describes one state-changing action to be recorded in the audit log.
type Event struct {
	ActorID   string
	ActorRole string
	OutletID  string
	Action    string
	Details   string
}

// Notifier appends immutable audit records. It is a write-only sink: the
// floor service never reads the log back.
type Notifier struct {
	db *gorm.DB
}

// NewNotifier creates a notifier writing to the given database.
func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Log records one event. Audit failures must not fail the action that
// succeeded, so errors are only logged.
func (n *Notifier) Log(ctx context.Context, ev Event) {
	entry := model.ActivityEntry{
		ActorID:   ev.ActorID,
		ActorRole: ev.ActorRole,
		OutletID:  ev.OutletID,
		Action:    ev.Action,
		Details:   ev.Details,
		Timestamp: time.Now().UTC(),
	}
	if err := n.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("activity log write failed (%s): %v", ev.Action, err)
	}
}

// Recent returns the newest entries for an outlet, for the audit log page.
func (n *Notifier) Recent(ctx context.Context, outletID string, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []model.ActivityEntry
	err := n.db.WithContext(ctx).
		Where("outlet_id = ?", outletID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
