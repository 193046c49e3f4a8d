package allocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// schema mirrors the production tables; the postgres column defaults
// (uuid_generate_v4, now) don't translate to sqlite so the tables are declared
// here and every insert carries explicit ids.
var schema = []string{
	`CREATE TABLE product (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		registered_at DATETIME,
		expected_production_at DATETIME,
		brand_id TEXT,
		designer_id TEXT,
		group_id TEXT,
		status_id TEXT,
		notes TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE location (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		short_name TEXT,
		active NUMERIC NOT NULL DEFAULT 1,
		lead_time_days INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE product_location (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		target_date DATETIME,
		production_order TEXT NOT NULL DEFAULT '',
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE monthly_allocation (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		production_order TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT 'original',
		user_id TEXT NOT NULL,
		product_location_id TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_event (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		payload TEXT,
		created_at DATETIME
	)`,
}

const ledgerUniqueIndex = `CREATE UNIQUE INDEX idx_monthly_allocation_group
	ON monthly_allocation (product_id, location_id, month, year, production_order)`

// newTestDB opens a private in-memory database. withLedgerIndex=false models
// data predating the grouping-key unique index, which the duplicate tests
// need to be able to seed.
func newTestDB(tb testing.TB, withLedgerIndex bool) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			tb.Fatalf("create schema: %v", err)
		}
	}
	if withLedgerIndex {
		if err := db.Exec(ledgerUniqueIndex).Error; err != nil {
			tb.Fatalf("create ledger index: %v", err)
		}
	}
	return db
}

func seedProduct(tb testing.TB, db *gorm.DB, reference string) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:          uuid.New(),
		Reference:   reference,
		Description: "camisa polo",
		BrandID:     uuid.New(),
		DesignerID:  uuid.New(),
		GroupID:     uuid.New(),
		StatusID:    uuid.New(),
	}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func seedLocation(tb testing.TB, db *gorm.DB, name string) *types.Location {
	tb.Helper()
	l := &types.Location{
		ID:     uuid.New(),
		Name:   name,
		Active: true,
	}
	if err := db.Create(l).Error; err != nil {
		tb.Fatalf("seed location: %v", err)
	}
	return l
}

func seedRow(tb testing.TB, db *gorm.DB, productID, locationID uuid.UUID, quantity int, targetDate *time.Time, order string) *types.ProductLocation {
	tb.Helper()
	row := &types.ProductLocation{
		ID:              uuid.New(),
		ProductID:       productID,
		LocationID:      locationID,
		Quantity:        quantity,
		TargetDate:      targetDate,
		ProductionOrder: order,
	}
	if err := db.Create(row).Error; err != nil {
		tb.Fatalf("seed association row: %v", err)
	}
	return row
}

func setRowNote(tb testing.TB, db *gorm.DB, rowID uuid.UUID, note string) {
	tb.Helper()
	if err := db.Model(&types.ProductLocation{}).Where("id = ?", rowID).Update("note", note).Error; err != nil {
		tb.Fatalf("set row note: %v", err)
	}
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func ledgerEntries(tb testing.TB, db *gorm.DB, productID uuid.UUID) []*types.MonthlyAllocation {
	tb.Helper()
	var entries []*types.MonthlyAllocation
	if err := db.Where("product_id = ?", productID).Order("year, month").Find(&entries).Error; err != nil {
		tb.Fatalf("load ledger entries: %v", err)
	}
	return entries
}

func inTx(tb testing.TB, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tb.Helper()
	return db.WithContext(context.Background()).Transaction(fn)
}
