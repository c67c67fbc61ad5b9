package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"floor-service-backend/internal/db"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/model"
	"floor-service-backend/internal/store"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newLedger(t *testing.T) (*Service, store.Store, *gorm.DB) {
	t.Helper()
	gdb := newTestDB(t)
	require.NoError(t, gdb.Create(&[]model.MenuItem{
		{ID: "menu-1", Name: "Paneer Tikka", Price: 350, Category: "Starters"},
		{ID: "menu-2", Name: "Garlic Naan", Price: 80, Category: "Breads"},
	}).Error)
	st := store.NewGormStore(gdb)
	return NewService(st, menu.NewGormCatalog(gdb)), st, gdb
}

func openSeating(t *testing.T, gdb *gorm.DB, key string) *model.Seating {
	t.Helper()
	seating := model.Seating{
		ID:            uuid.NewString(),
		TableOrClubID: key,
		WaiterID:      "user-6",
		Covers:        2,
		Status:        model.SeatingOpen,
	}
	require.NoError(t, gdb.Create(&seating).Error)
	return &seating
}

func TestAppendLinesMaintainsTotal(t *testing.T) {
	svc, st, gdb := newLedger(t)
	ctx := context.Background()
	seating := openSeating(t, gdb, "t-1")

	release := st.Acquire(seating.TableOrClubID)
	updated, err := svc.AppendLines(ctx, seating.ID, []ItemRequest{
		{ItemID: "menu-1", Quantity: 2},
		{ItemID: "menu-2", Quantity: 1},
	})
	release()
	require.NoError(t, err)

	require.Len(t, updated.Lines, 2)
	assert.Equal(t, "Paneer Tikka", updated.Lines[0].Name)
	assert.Equal(t, 350.0, updated.Lines[0].UnitPrice)
	assert.Equal(t, model.LineOrdered, updated.Lines[0].Status)
	assert.Equal(t, 780.0, updated.Total)
	assert.Equal(t, updated.OrderedTotal(), updated.Total, "incremental total must match recomputation")

	// Same item again appends a new line instead of merging quantities.
	release = st.Acquire(seating.TableOrClubID)
	updated, err = svc.AppendLines(ctx, seating.ID, []ItemRequest{{ItemID: "menu-1", Quantity: 1}})
	release()
	require.NoError(t, err)
	require.Len(t, updated.Lines, 3)
	assert.Equal(t, 1130.0, updated.Total)
	assert.Equal(t, updated.OrderedTotal(), updated.Total)

	for i, l := range updated.Lines {
		assert.Equal(t, i, l.Position)
	}
}

func TestAppendLinesUnknownItemIsAtomic(t *testing.T) {
	svc, st, gdb := newLedger(t)
	ctx := context.Background()
	seating := openSeating(t, gdb, "t-1")

	release := st.Acquire(seating.TableOrClubID)
	_, err := svc.AppendLines(ctx, seating.ID, []ItemRequest{
		{ItemID: "menu-1", Quantity: 1},
		{ItemID: "menu-404", Quantity: 1},
	})
	release()
	require.ErrorIs(t, err, menu.ErrUnknownItem)

	reloaded, err := st.GetSeating(ctx, seating.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Lines, "a failed append must not bill the valid items")
	assert.Zero(t, reloaded.Total)
}

func TestAppendLinesClosedSeating(t *testing.T) {
	svc, _, gdb := newLedger(t)
	seating := openSeating(t, gdb, "t-1")
	require.NoError(t, gdb.Model(&model.Seating{}).Where("id = ?", seating.ID).
		Update("status", model.SeatingClosed).Error)

	_, err := svc.AppendLines(context.Background(), seating.ID, []ItemRequest{{ItemID: "menu-1", Quantity: 1}})
	assert.ErrorIs(t, err, ErrSeatingClosed)
}

func TestCancelLineIsOneWay(t *testing.T) {
	svc, st, gdb := newLedger(t)
	ctx := context.Background()
	seating := openSeating(t, gdb, "t-1")

	release := st.Acquire(seating.TableOrClubID)
	updated, err := svc.AppendLines(ctx, seating.ID, []ItemRequest{
		{ItemID: "menu-1", Quantity: 1},
		{ItemID: "menu-2", Quantity: 2},
	})
	release()
	require.NoError(t, err)
	lineID := updated.Lines[0].ID

	updated, err = svc.CancelLine(ctx, seating.ID, lineID)
	require.NoError(t, err)
	assert.Equal(t, model.LineCancelled, updated.Lines[0].Status)
	assert.Equal(t, 160.0, updated.Total)
	assert.Equal(t, updated.OrderedTotal(), updated.Total)
	assert.Len(t, updated.Lines, 2, "cancelled lines stay on the bill")

	_, err = svc.CancelLine(ctx, seating.ID, lineID)
	assert.ErrorIs(t, err, ErrLineCancelled)

	_, err = svc.CancelLine(ctx, seating.ID, 9999)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestCancelFirstOrderedByNamePicksEarliest(t *testing.T) {
	svc, st, gdb := newLedger(t)
	ctx := context.Background()
	seating := openSeating(t, gdb, "t-1")

	release := st.Acquire(seating.TableOrClubID)
	_, err := svc.AppendLines(ctx, seating.ID, []ItemRequest{
		{ItemID: "menu-1", Quantity: 1},
		{ItemID: "menu-1", Quantity: 2},
	})
	release()
	require.NoError(t, err)

	require.NoError(t, gdb.Transaction(func(tx *gorm.DB) error {
		return svc.CancelFirstOrderedByName(tx, "t-1", "Paneer Tikka")
	}))

	reloaded, err := st.GetSeating(ctx, seating.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LineCancelled, reloaded.Lines[0].Status)
	assert.Equal(t, model.LineOrdered, reloaded.Lines[1].Status)
	assert.Equal(t, 700.0, reloaded.Total)
	assert.Equal(t, reloaded.OrderedTotal(), reloaded.Total)

	// Cancelling again skips the already cancelled line.
	require.NoError(t, gdb.Transaction(func(tx *gorm.DB) error {
		return svc.CancelFirstOrderedByName(tx, "t-1", "Paneer Tikka")
	}))
	reloaded, err = st.GetSeating(ctx, seating.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LineCancelled, reloaded.Lines[1].Status)
	assert.Zero(t, reloaded.Total)
}

func TestCancelFirstOrderedByNameWithoutSeatingIsNoop(t *testing.T) {
	svc, _, gdb := newLedger(t)

	// Takeaway tickets have no bill behind them.
	require.NoError(t, gdb.Transaction(func(tx *gorm.DB) error {
		return svc.CancelFirstOrderedByName(tx, "no-such-key", "Paneer Tikka")
	}))
}
