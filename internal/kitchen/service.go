package kitchen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/model"
	"floor-service-backend/internal/store"
)

var (
	// ErrInvalidTransition is returned when a ticket line move skips a stage
	// or goes backward.
	ErrInvalidTransition = errors.New("invalid ticket line transition")
	// ErrLineNotFound is returned when a line index is not on the ticket.
	ErrLineNotFound = errors.New("ticket line not found")
	// ErrNoOpenSeating is returned when dispatching dine-in items to a
	// table/club key with no open seating behind it.
	ErrNoOpenSeating = errors.New("no open seating for key")
)

// ReadyNotifier receives tables that just went FoodReady, for waiter alerts.
type ReadyNotifier interface {
	TableReady(table model.DiningTable)
}

// Service is the kitchen ticket dispatcher: it creates and extends tickets,
// advances and cancels their lines, and classifies the queue for display.
type Service struct {
	store    store.Store
	ledger   *ledger.Service
	catalog  menu.Catalog
	notifier ReadyNotifier // optional
	outletID string
}

// NewService creates a new kitchen ticket dispatcher.
func NewService(s store.Store, lg *ledger.Service, catalog menu.Catalog, outletID string) *Service {
	return &Service{store: s, ledger: lg, catalog: catalog, outletID: outletID}
}

// SetReadyNotifier wires the waiter alert sink. Safe to leave unset.
func (s *Service) SetReadyNotifier(n ReadyNotifier) { s.notifier = n }

// SendToKitchen appends the requested items to the seating's bill and
// dispatches them to the kitchen in one critical section, so no reader can
// observe lines billed but not yet sent.
func (s *Service) SendToKitchen(ctx context.Context, seatingID string, items []ledger.ItemRequest) (*model.Seating, *model.KitchenTicket, error) {
	seating, err := s.store.GetSeating(ctx, seatingID)
	if err != nil {
		return nil, nil, err
	}

	release := s.store.Acquire(seating.TableOrClubID)
	defer release()

	seating, err = s.ledger.AppendLines(ctx, seatingID, items)
	if err != nil {
		return nil, nil, err
	}

	appended := seating.Lines[len(seating.Lines)-len(items):]
	ticketItems := make([]model.TicketLine, len(appended))
	for i, l := range appended {
		ticketItems[i] = model.TicketLine{Name: l.Name, Quantity: l.Quantity, Status: model.TicketLineNew}
	}

	ticket, err := s.dispatchLocked(ctx, seating.TableOrClubID, ticketItems)
	if err != nil {
		return nil, nil, err
	}
	return seating, ticket, nil
}

// Dispatch appends items to the open dine-in ticket for a table/club key,
// creating the ticket on first send, and moves Seated member tables to
// Ordered. The caller-facing send path is SendToKitchen; this entry point
// serves kitchen-side dispatch without billing.
func (s *Service) Dispatch(ctx context.Context, key string, items []ledger.ItemRequest) (*model.KitchenTicket, error) {
	lines, err := s.resolve(ctx, items)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire(key)
	defer release()

	// Every dine-in ticket needs a bill behind it, or cancellations would
	// have nothing to adjust.
	if _, err := s.store.OpenSeatingForKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoOpenSeating, key)
		}
		return nil, err
	}

	return s.dispatchLocked(ctx, key, lines)
}

// CreateTakeaway creates a standalone ticket with an auto-incrementing
// "Takeaway #N" label and no table key.
func (s *Service) CreateTakeaway(ctx context.Context, items []ledger.ItemRequest) (*model.KitchenTicket, error) {
	lines, err := s.resolve(ctx, items)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire("takeaway/" + s.outletID)
	defer release()

	ticket := model.KitchenTicket{
		ID:        uuid.NewString(),
		OutletID:  s.outletID,
		OrderType: model.OrderTakeaway,
		CreatedAt: time.Now().UTC(),
	}
	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.store.NextTakeawayNumber(tx, s.outletID)
		if err != nil {
			return err
		}
		ticket.DisplayLabel = fmt.Sprintf("Takeaway #%d", n)
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].TicketID = ticket.ID
			lines[i].Position = i
			if err := tx.Create(&lines[i]).Error; err != nil {
				return err
			}
		}
		ticket.Lines = lines
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create takeaway: %w", err)
	}
	return &ticket, nil
}

// AdvanceLine moves one ticket line forward. The only legal moves are
// New -> Preparing and Preparing -> Ready; anything else fails so a client
// acting on a stale snapshot cannot corrupt state. The first line to reach
// Ready on a dine-in ticket flips every member table to FoodReady: a
// "first plate up" signal, not "all plates up".
func (s *Service) AdvanceLine(ctx context.Context, ticketID string, lineIndex int, newStatus model.TicketLineStatus) (*model.KitchenTicket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	release := s.store.Acquire(s.ticketKey(ticket))
	defer release()

	ticket, err = s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if lineIndex < 0 || lineIndex >= len(ticket.Lines) {
		return nil, fmt.Errorf("line %d on ticket %s: %w", lineIndex, ticketID, ErrLineNotFound)
	}

	line := &ticket.Lines[lineIndex]
	if !validTransition(line.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, line.Status, newStatus)
	}

	var readyTables []model.DiningTable
	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TicketLine{}).Where("id = ?", line.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		line.Status = newStatus

		if newStatus != model.TicketLineReady || ticket.OrderType != model.OrderDineIn || ticket.TableOrClubID == nil {
			return nil
		}
		tables, err := s.store.TablesForKey(ctx, *ticket.TableOrClubID)
		if err != nil {
			return err
		}
		for i := range tables {
			if !tables[i].Occupied() {
				continue
			}
			tables[i].Status = model.TableFoodReady
			if err := tx.Save(&tables[i]).Error; err != nil {
				return err
			}
			readyTables = append(readyTables, tables[i])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("advance line: %w", err)
	}

	if s.notifier != nil {
		for _, t := range readyTables {
			s.notifier.TableReady(t)
		}
	}
	return ticket, nil
}

// CancelLine removes a line from the ticket and cancels the first matching
// Ordered line on the corresponding bill. A ticket left with no lines is
// discarded entirely.
func (s *Service) CancelLine(ctx context.Context, ticketID string, lineIndex int) error {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	release := s.store.Acquire(s.ticketKey(ticket))
	defer release()

	ticket, err = s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if lineIndex < 0 || lineIndex >= len(ticket.Lines) {
		return fmt.Errorf("line %d on ticket %s: %w", lineIndex, ticketID, ErrLineNotFound)
	}
	cancelled := ticket.Lines[lineIndex]

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.TicketLine{}, "id = ?", cancelled.ID).Error; err != nil {
			return err
		}
		if ticket.TableOrClubID != nil {
			if err := s.ledger.CancelFirstOrderedByName(tx, *ticket.TableOrClubID, cancelled.Name); err != nil {
				return err
			}
		}
		if len(ticket.Lines) == 1 {
			return tx.Delete(&model.KitchenTicket{}, "id = ?", ticket.ID).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel ticket line: %w", err)
	}
	return nil
}

// Queues returns the classified kitchen view for an outlet, recomputed from
// current ticket state.
func (s *Service) Queues(ctx context.Context, outletID string) (Queues, error) {
	tickets, err := s.store.ListTickets(ctx, outletID)
	if err != nil {
		return Queues{}, err
	}
	return Classify(tickets), nil
}

func (s *Service) dispatchLocked(ctx context.Context, key string, lines []model.TicketLine) (*model.KitchenTicket, error) {
	tables, err := s.store.TablesForKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("tables for key %s: %w", key, store.ErrNotFound)
	}

	ticket, err := s.store.OpenTicketForKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ticket == nil {
			ticket = &model.KitchenTicket{
				ID:            uuid.NewString(),
				OutletID:      s.outletID,
				OrderType:     model.OrderDineIn,
				TableOrClubID: &key,
				DisplayLabel:  displayLabel(tables),
				CreatedAt:     time.Now().UTC(),
			}
			if err := tx.Create(ticket).Error; err != nil {
				return err
			}
		}
		pos := len(ticket.Lines)
		for i := range lines {
			lines[i].TicketID = ticket.ID
			lines[i].Position = pos + i
			if err := tx.Create(&lines[i]).Error; err != nil {
				return err
			}
			ticket.Lines = append(ticket.Lines, lines[i])
		}
		for i := range tables {
			if tables[i].Status == model.TableSeated {
				tables[i].Status = model.TableOrdered
				if err := tx.Save(&tables[i]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	return ticket, nil
}

func (s *Service) resolve(ctx context.Context, items []ledger.ItemRequest) ([]model.TicketLine, error) {
	lines := make([]model.TicketLine, len(items))
	for i, it := range items {
		item, err := s.catalog.GetItem(ctx, it.ItemID)
		if err != nil {
			return nil, err
		}
		lines[i] = model.TicketLine{Name: item.Name, Quantity: it.Quantity, Status: model.TicketLineNew}
	}
	return lines, nil
}

// ticketKey is the serialization key for a ticket: its table/club key for
// dine-in, its own id for takeaway.
func (s *Service) ticketKey(t *model.KitchenTicket) string {
	if t.TableOrClubID != nil {
		return *t.TableOrClubID
	}
	return t.ID
}

func validTransition(from, to model.TicketLineStatus) bool {
	switch from {
	case model.TicketLineNew:
		return to == model.TicketLinePreparing
	case model.TicketLinePreparing:
		return to == model.TicketLineReady
	default:
		return false
	}
}

func displayLabel(tables []model.DiningTable) string {
	if len(tables) == 1 {
		return tables[0].Name
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return "Club (" + strings.Join(names, ", ") + ")"
}
