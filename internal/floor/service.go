package floor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floor-service-backend/internal/activity"
	"floor-service-backend/internal/model"
	"floor-service-backend/internal/store"
)

var (
	// ErrTableUnavailable is returned when a named table is not Available.
	ErrTableUnavailable = errors.New("table unavailable")
	// ErrInvalidCovers is returned when covers fall outside [1, total capacity].
	ErrInvalidCovers = errors.New("invalid covers")
	// ErrInvalidStateTransition is returned for a move the table state machine forbids.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrAlreadyClosed is returned when operating on a closed seating.
	ErrAlreadyClosed = errors.New("seating already closed")
)

// Actor identifies who performed a state-changing action, for the audit log.
type Actor struct {
	ID   string
	Role string
}

// Service is the table & seating manager. It drives table status
// transitions and owns the seating lifecycle.
type Service struct {
	store    store.Store
	notifier *activity.Notifier
	outletID string
}

// NewService creates a new table & seating manager.
func NewService(s store.Store, notifier *activity.Notifier, outletID string) *Service {
	return &Service{store: s, notifier: notifier, outletID: outletID}
}

// StartSeating occupies the named tables with one guest party and opens a
// seating for them. More than one table id clubs the tables under a fresh
// club id; a single pre-clubbed table seats the whole club.
func (s *Service) StartSeating(ctx context.Context, tableIDs []string, covers uint, waiterID string, actor Actor) (*model.Seating, []model.DiningTable, error) {
	if len(tableIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: no tables named", ErrTableUnavailable)
	}

	tables, err := s.store.GetTables(ctx, tableIDs)
	if err != nil {
		return nil, nil, err
	}

	// Lock the named tables plus any club key they carry, then re-read:
	// membership may have changed while unlocked. If the re-read expands the
	// key set (a club formed, the club grew), release and re-acquire the
	// larger set until it is stable, so every member key is held before any
	// mutation.
	held := lockKeySet(tableIDs, tables)
	release := s.store.Acquire(held...)
	for {
		tables, err = s.store.GetTables(ctx, tableIDs)
		if err != nil {
			release()
			return nil, nil, err
		}

		// A single pre-clubbed table stands for its whole club.
		if len(tables) == 1 && tables[0].ClubID != nil {
			tables, err = s.store.TablesForKey(ctx, *tables[0].ClubID)
			if err != nil {
				release()
				return nil, nil, err
			}
		}

		needed := lockKeySet(nil, tables)
		if containsAll(held, needed) {
			break
		}
		release()
		held = mergeKeys(held, needed)
		release = s.store.Acquire(held...)
	}
	defer release()

	var totalCapacity uint
	for _, t := range tables {
		if t.Status != model.TableAvailable {
			return nil, nil, fmt.Errorf("%w: %s is %s", ErrTableUnavailable, t.Name, t.Status)
		}
		totalCapacity += t.Capacity
	}
	if covers < 1 || covers > totalCapacity {
		return nil, nil, fmt.Errorf("%w: %d covers for capacity %d", ErrInvalidCovers, covers, totalCapacity)
	}

	key := tables[0].SeatingKey()
	var freshClub *string
	if len(tables) > 1 && tables[0].ClubID == nil {
		id := uuid.NewString()
		freshClub = &id
		key = id
	}

	seating := model.Seating{
		ID:            uuid.NewString(),
		TableOrClubID: key,
		WaiterID:      waiterID,
		Covers:        covers,
		Status:        model.SeatingOpen,
	}
	now := time.Now().UTC()

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&seating).Error; err != nil {
			return err
		}
		for i := range tables {
			tables[i].Status = model.TableSeated
			tables[i].SeatedAt = &now
			tables[i].ActiveSeatingID = &seating.ID
			if freshClub != nil {
				tables[i].ClubID = freshClub
			}
			if err := tx.Save(&tables[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start seating: %w", err)
	}

	s.notifier.Log(ctx, activity.Event{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OutletID:  s.outletID,
		Action:    "Seating Started",
		Details:   fmt.Sprintf("Seated %d covers at %s", covers, tableNames(tables)),
	})
	return &seating, tables, nil
}

// AcknowledgeFoodReady moves a table from FoodReady back to Ordered once
// the waiter has picked up the plates. Ordered, not Seated: an open seating
// still exists and must not look like an empty table.
func (s *Service) AcknowledgeFoodReady(ctx context.Context, tableID string) (*model.DiningTable, error) {
	table, err := s.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire(table.SeatingKey())
	defer release()

	table, err = s.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != model.TableFoodReady {
		return nil, fmt.Errorf("%w: %s is %s, not FoodReady", ErrInvalidStateTransition, table.Name, table.Status)
	}

	table.Status = model.TableOrdered
	if err := s.store.DB().WithContext(ctx).Save(table).Error; err != nil {
		return nil, fmt.Errorf("acknowledge food ready: %w", err)
	}
	return table, nil
}

// FinalizeBill closes a seating: the bill becomes terminal, every member
// table returns to Available, and any open kitchen ticket for the key is
// discarded regardless of its lines' preparation state.
func (s *Service) FinalizeBill(ctx context.Context, seatingID string, actor Actor) (*model.Seating, []model.DiningTable, error) {
	seating, err := s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, nil, err
	}

	release := s.store.Acquire(seating.TableOrClubID)
	defer release()

	seating, err = s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, nil, err
	}
	if seating.Status == model.SeatingClosed {
		return nil, nil, fmt.Errorf("seating %s: %w", seatingID, ErrAlreadyClosed)
	}

	tables, err := s.store.TablesForKey(ctx, seating.TableOrClubID)
	if err != nil {
		return nil, nil, err
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seating.Status = model.SeatingClosed
		if err := tx.Model(&model.Seating{}).Where("id = ?", seating.ID).
			Update("status", model.SeatingClosed).Error; err != nil {
			return err
		}
		for i := range tables {
			tables[i].Status = model.TableAvailable
			tables[i].SeatedAt = nil
			tables[i].ActiveSeatingID = nil
			tables[i].ClubID = nil
			if err := tx.Save(&tables[i]).Error; err != nil {
				return err
			}
		}
		return discardTicketsForKey(tx, seating.TableOrClubID)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("finalize bill: %w", err)
	}

	s.notifier.Log(ctx, activity.Event{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OutletID:  s.outletID,
		Action:    "Bill Finalized",
		Details:   fmt.Sprintf("Closed seating %s for %s (%.2f)", seating.ID, tableNames(tables), seating.Total),
	})
	return seating, tables, nil
}

// ClubTables merges Available tables under a fresh club id so one party can
// be seated across them. The tables stay Available until a seating starts.
func (s *Service) ClubTables(ctx context.Context, tableIDs []string, actor Actor) ([]model.DiningTable, error) {
	if len(tableIDs) < 2 {
		return nil, fmt.Errorf("%w: clubbing needs at least two tables", ErrTableUnavailable)
	}

	release := s.store.Acquire(tableIDs...)
	defer release()

	tables, err := s.store.GetTables(ctx, tableIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.Status != model.TableAvailable || t.ClubID != nil {
			return nil, fmt.Errorf("%w: %s cannot be clubbed", ErrTableUnavailable, t.Name)
		}
	}

	clubID := uuid.NewString()
	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tables {
			tables[i].ClubID = &clubID
			if err := tx.Save(&tables[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("club tables: %w", err)
	}

	s.notifier.Log(ctx, activity.Event{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OutletID:  s.outletID,
		Action:    "Table Clubbing",
		Details:   "Clubbed tables: " + tableNames(tables),
	})
	return tables, nil
}

// UnclubTables dissolves a club of Available tables. A club with an open
// seating must be closed through FinalizeBill first.
func (s *Service) UnclubTables(ctx context.Context, clubID string, actor Actor) ([]model.DiningTable, error) {
	release := s.store.Acquire(clubID)
	defer release()

	tables, err := s.store.TablesForKey(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("club %s: %w", clubID, store.ErrNotFound)
	}
	for _, t := range tables {
		if t.Occupied() {
			return nil, fmt.Errorf("%w: club %s has an open seating", ErrInvalidStateTransition, clubID)
		}
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tables {
			tables[i].ClubID = nil
			if err := tx.Save(&tables[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unclub tables: %w", err)
	}

	s.notifier.Log(ctx, activity.Event{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OutletID:  s.outletID,
		Action:    "Table Unclubbed",
		Details:   "Unclubbed tables: " + tableNames(tables),
	})
	return tables, nil
}

// AssignWaiter reassigns a table to a waiter.
func (s *Service) AssignWaiter(ctx context.Context, tableID, waiterID string, actor Actor) (*model.DiningTable, error) {
	table, err := s.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire(table.SeatingKey())
	defer release()

	// Re-read under the lock and touch only the assignment column: a full
	// Save here would overwrite status changes committed while unlocked.
	table, err = s.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	table.AssignedWaiterID = waiterID
	if err := s.store.DB().WithContext(ctx).Model(&model.DiningTable{}).
		Where("id = ?", tableID).
		Update("assigned_waiter_id", waiterID).Error; err != nil {
		return nil, fmt.Errorf("assign waiter: %w", err)
	}

	s.notifier.Log(ctx, activity.Event{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OutletID:  s.outletID,
		Action:    "Table Assignment",
		Details:   fmt.Sprintf("Assigned waiter %s to %s", waiterID, table.Name),
	})
	return table, nil
}

// discardTicketsForKey drops every kitchen ticket for a table/club key,
// lines included. Closing the bill always clears the kitchen queue for the
// vacated table.
func discardTicketsForKey(tx *gorm.DB, key string) error {
	var tickets []model.KitchenTicket
	if err := tx.Where("table_or_club_id = ?", key).Find(&tickets).Error; err != nil {
		return err
	}
	for _, t := range tickets {
		if err := tx.Where("ticket_id = ?", t.ID).Delete(&model.TicketLine{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.KitchenTicket{}, "id = ?", t.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// lockKeySet collects the serialization keys for a seating mutation: the
// named ids plus, for each table, its id and its current seating key.
func lockKeySet(ids []string, tables []model.DiningTable) []string {
	keys := append([]string{}, ids...)
	for _, t := range tables {
		keys = append(keys, t.ID, t.SeatingKey())
	}
	return keys
}

func containsAll(held, needed []string) bool {
	set := make(map[string]struct{}, len(held))
	for _, k := range held {
		set[k] = struct{}{}
	}
	for _, k := range needed {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

func mergeKeys(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, k := range append(append([]string{}, a...), b...) {
		if _, ok := set[k]; ok {
			continue
		}
		set[k] = struct{}{}
		merged = append(merged, k)
	}
	return merged
}

func tableNames(tables []model.DiningTable) string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
