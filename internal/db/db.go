package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"floor-service-backend/config"
	"floor-service-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates the schema for all floor-service entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Floor{},
		&model.DiningTable{},
		&model.Seating{},
		&model.OrderLine{},
		&model.KitchenTicket{},
		&model.TicketLine{},
		&model.MenuItem{},
		&model.ActivityEntry{},
		&model.PushSubscription{},
		&model.TakeawaySequence{},
	)
}

// Seed upserts floors, tables, and menu items from the configuration.
// Live table state (status, seating linkage) is never overwritten.
func Seed(db *gorm.DB, seed *config.SeedConfig) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var floors []model.Floor
		var tables []model.DiningTable
		for _, f := range seed.Floors {
			floors = append(floors, model.Floor{ID: f.ID, Name: f.Name, OutletID: seed.OutletID})
			for _, t := range f.Tables {
				tables = append(tables, model.DiningTable{
					ID:               t.ID,
					Name:             t.Name,
					Capacity:         t.Capacity,
					FloorID:          f.ID,
					Status:           model.TableAvailable,
					AssignedWaiterID: t.WaiterID,
				})
			}
		}

		if len(floors) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "outlet_id", "updated_at"}),
			}).Create(&floors).Error; err != nil {
				return fmt.Errorf("seed floors: %w", err)
			}
		}
		if len(tables) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "capacity", "floor_id", "assigned_waiter_id", "updated_at"}),
			}).Create(&tables).Error; err != nil {
				return fmt.Errorf("seed tables: %w", err)
			}
		}

		var items []model.MenuItem
		for _, m := range seed.Menu {
			items = append(items, model.MenuItem{ID: m.ID, Name: m.Name, Price: m.Price, Category: m.Category})
		}
		if len(items) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "price", "category", "updated_at"}),
			}).Create(&items).Error; err != nil {
				return fmt.Errorf("seed menu: %w", err)
			}
		}
		return nil
	})
}
