package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"floor-service-backend/internal/model"
)

// ErrNotFound is returned when a table, seating, or ticket does not exist.
var ErrNotFound = errors.New("not found")

// Store is the session store: the single ownership boundary around tables,
// seatings, and kitchen tickets. All mutation goes through it, serialized
// per table/club key via Acquire.
type Store interface {
	DB() *gorm.DB

	// Acquire locks the given table/club keys and returns a release func.
	Acquire(keys ...string) func()

	GetTable(ctx context.Context, id string) (*model.DiningTable, error)
	GetTables(ctx context.Context, ids []string) ([]model.DiningTable, error)
	TablesForKey(ctx context.Context, key string) ([]model.DiningTable, error)

	GetSeating(ctx context.Context, id string) (*model.Seating, error)
	OpenSeatingForKey(ctx context.Context, key string) (*model.Seating, error)

	GetTicket(ctx context.Context, id string) (*model.KitchenTicket, error)
	OpenTicketForKey(ctx context.Context, key string) (*model.KitchenTicket, error)
	ListTickets(ctx context.Context, outletID string) ([]model.KitchenTicket, error)

	NextTakeawayNumber(tx *gorm.DB, outletID string) (int64, error)
}

type gormStore struct {
	db    *gorm.DB
	locks *KeyLock
}

// NewGormStore creates a new GORM-backed session store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, locks: NewKeyLock()}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) Acquire(keys ...string) func() {
	return s.locks.Acquire(keys...)
}

func (s *gormStore) GetTable(ctx context.Context, id string) (*model.DiningTable, error) {
	var table model.DiningTable
	err := s.db.WithContext(ctx).First(&table, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("table %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *gormStore) GetTables(ctx context.Context, ids []string) ([]model.DiningTable, error) {
	var tables []model.DiningTable
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tables).Error; err != nil {
		return nil, err
	}
	if len(tables) != len(ids) {
		return nil, fmt.Errorf("one or more tables: %w", ErrNotFound)
	}
	return tables, nil
}

// TablesForKey returns every table joined by a seating key: all members of
// the club when the key is a club id, the single table otherwise.
func (s *gormStore) TablesForKey(ctx context.Context, key string) ([]model.DiningTable, error) {
	var tables []model.DiningTable
	err := s.db.WithContext(ctx).
		Where("club_id = ? OR id = ?", key, key).
		Order("id").
		Find(&tables).Error
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *gormStore) GetSeating(ctx context.Context, id string) (*model.Seating, error) {
	var seating model.Seating
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&seating, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("seating %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &seating, nil
}

func (s *gormStore) OpenSeatingForKey(ctx context.Context, key string) (*model.Seating, error) {
	var seating model.Seating
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&seating, "table_or_club_id = ? AND status = ?", key, model.SeatingOpen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("open seating for %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &seating, nil
}

func (s *gormStore) GetTicket(ctx context.Context, id string) (*model.KitchenTicket, error) {
	var ticket model.KitchenTicket
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&ticket, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *gormStore) OpenTicketForKey(ctx context.Context, key string) (*model.KitchenTicket, error) {
	var ticket model.KitchenTicket
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&ticket, "table_or_club_id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ticket for %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *gormStore) ListTickets(ctx context.Context, outletID string) ([]model.KitchenTicket, error) {
	var tickets []model.KitchenTicket
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("outlet_id = ?", outletID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// NextTakeawayNumber increments and returns the per-outlet takeaway counter.
// Must run inside the caller's transaction.
func (s *gormStore) NextTakeawayNumber(tx *gorm.DB, outletID string) (int64, error) {
	seq := model.TakeawaySequence{OutletID: outletID, Next: 1}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outlet_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"next": gorm.Expr("next + 1")}),
	}).Create(&seq).Error; err != nil {
		return 0, fmt.Errorf("takeaway sequence for %s: %w", outletID, err)
	}
	if err := tx.First(&seq, "outlet_id = ?", outletID).Error; err != nil {
		return 0, err
	}
	return seq.Next, nil
}
