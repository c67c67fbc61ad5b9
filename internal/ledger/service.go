package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/model"
	"floor-service-backend/internal/store"
)

var (
	// ErrSeatingClosed is returned when appending to a closed seating.
	ErrSeatingClosed = errors.New("seating closed")
	// ErrLineNotFound is returned when a line id is not on the seating.
	ErrLineNotFound = errors.New("order line not found")
	// ErrLineCancelled is returned when cancelling an already cancelled line.
	ErrLineCancelled = errors.New("order line already cancelled")
)

// ItemRequest is one requested item quantity, resolved against the catalog.
type ItemRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity uint   `json:"quantity" binding:"required,min=1"`
}

// Service is the order ledger. It maintains each seating's lines and its
// incrementally updated total.
//
// Total invariant after every mutation: Total equals the sum of
// UnitPrice*Quantity over lines whose status is Ordered.
type Service struct {
	store   store.Store
	catalog menu.Catalog
}

// NewService creates a new order ledger.
func NewService(s store.Store, catalog menu.Catalog) *Service {
	return &Service{store: s, catalog: catalog}
}

// AppendLines resolves the requested items against the menu catalog and
// appends one OrderLine per request; quantities are never merged into
// existing lines. The caller must hold the seating's key lock: this is one
// half of the send-to-kitchen critical section.
func (s *Service) AppendLines(ctx context.Context, seatingID string, items []ItemRequest) (*model.Seating, error) {
	seating, err := s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, err
	}
	if seating.Status != model.SeatingOpen {
		return nil, fmt.Errorf("seating %s: %w", seatingID, ErrSeatingClosed)
	}

	// Resolve everything before mutating anything: the append either fully
	// applies or fully fails.
	resolved := make([]*model.MenuItem, len(items))
	for i, it := range items {
		item, err := s.catalog.GetItem(ctx, it.ItemID)
		if err != nil {
			return nil, err
		}
		resolved[i] = item
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos := len(seating.Lines)
		for i, it := range items {
			line := model.OrderLine{
				SeatingID: seating.ID,
				Position:  pos + i,
				ItemID:    resolved[i].ID,
				Name:      resolved[i].Name,
				UnitPrice: resolved[i].Price,
				Quantity:  it.Quantity,
				Status:    model.LineOrdered,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			seating.Lines = append(seating.Lines, line)
			seating.Total += line.Amount()
		}
		return tx.Model(&model.Seating{}).Where("id = ?", seating.ID).
			Update("total", seating.Total).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append lines: %w", err)
	}
	return seating, nil
}

// CancelLine marks one Ordered line Cancelled and deducts its contribution
// from the total. Cancelled lines stay on the bill for display and audit.
func (s *Service) CancelLine(ctx context.Context, seatingID string, lineID int64) (*model.Seating, error) {
	seating, err := s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire(seating.TableOrClubID)
	defer release()

	seating, err = s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, err
	}

	var target *model.OrderLine
	for i := range seating.Lines {
		if seating.Lines[i].ID == lineID {
			target = &seating.Lines[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("line %d on seating %s: %w", lineID, seatingID, ErrLineNotFound)
	}
	if target.Status == model.LineCancelled {
		return nil, fmt.Errorf("line %d: %w", lineID, ErrLineCancelled)
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cancelLine(tx, seating, target)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel line: %w", err)
	}
	return seating, nil
}

// CancelFirstOrderedByName cancels the first non-cancelled line carrying the
// given item name and deducts its contribution. Used by the kitchen ticket
// dispatcher when a ticket line is cancelled: the ticket only knows the item
// name, so with duplicate names the earliest Ordered line is the one billed
// out. Must run inside the caller's transaction, under the key lock.
func (s *Service) CancelFirstOrderedByName(tx *gorm.DB, key, name string) error {
	var seating model.Seating
	err := tx.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&seating, "table_or_club_id = ? AND status = ?", key, model.SeatingOpen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Takeaway tickets and already-closed seatings have no bill to adjust.
		return nil
	}
	if err != nil {
		return err
	}

	for i := range seating.Lines {
		if seating.Lines[i].Name == name && seating.Lines[i].Status == model.LineOrdered {
			return cancelLine(tx, &seating, &seating.Lines[i])
		}
	}
	return nil
}

func cancelLine(tx *gorm.DB, seating *model.Seating, line *model.OrderLine) error {
	if err := tx.Model(&model.OrderLine{}).Where("id = ?", line.ID).
		Update("status", model.LineCancelled).Error; err != nil {
		return err
	}
	line.Status = model.LineCancelled
	seating.Total -= line.Amount()
	return tx.Model(&model.Seating{}).Where("id = ?", seating.ID).
		Update("total", seating.Total).Error
}
