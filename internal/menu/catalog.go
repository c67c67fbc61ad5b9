package menu

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"floor-service-backend/internal/model"
)

// ErrUnknownItem is returned when an item id is not in the catalog.
var ErrUnknownItem = errors.New("unknown menu item")

// Catalog is the read-only menu lookup consumed by the order ledger.
// Menu editing belongs to the menu management subsystem, not this service.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*model.MenuItem, error)
	ListItems(ctx context.Context) ([]model.MenuItem, error)
}

type gormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog backed by the menu_items table.
func NewGormCatalog(db *gorm.DB) Catalog {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) GetItem(ctx context.Context, id string) (*model.MenuItem, error) {
	var item model.MenuItem
	err := c.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *gormCatalog) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := c.db.WithContext(ctx).Order("category, name").Find(&items).Error
	return items, err
}
