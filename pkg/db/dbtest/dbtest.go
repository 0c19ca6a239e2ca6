// Package dbtest opens isolated in-memory SQLite databases carrying the same
// tables as the Postgres migrations, for repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  display_name TEXT NOT NULL,
  description TEXT,
  category TEXT,
  capacity INTEGER NOT NULL CHECK (capacity >= 0),
  nightly_price NUMERIC NOT NULL,
  setup_fee NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_city TEXT NOT NULL,
  address_state TEXT NOT NULL,
  address_zip TEXT NOT NULL,
  notes TEXT,
  products TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (start_date < end_date)
);
CREATE TABLE IF NOT EXISTS blocked_dates (
  id TEXT PRIMARY KEY,
  date TEXT NOT NULL,
  reason TEXT NOT NULL,
  description TEXT,
  all_products INTEGER NOT NULL DEFAULT 1,
  products TEXT,
  blocked_by TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS blocked_dates_active_date_idx ON blocked_dates (date) WHERE is_active = 1;
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);
`

// Open returns a fresh database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:relacks_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// a single connection keeps the shared-cache database alive and avoids
	// SQLITE_LOCKED between pooled connections.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// OpenClient wraps Open in a db.Client.
func OpenClient(t *testing.T) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

// SeedProduct inserts an active product with the given capacity and prices.
func SeedProduct(t *testing.T, conn *gorm.DB, slug string, capacity int, nightly, setup string) models.Product {
	t.Helper()
	product := models.Product{
		ID:           uuid.New(),
		Slug:         slug,
		Name:         slug,
		DisplayName:  slug,
		Capacity:     capacity,
		NightlyPrice: decimal.RequireFromString(nightly),
		SetupFee:     decimal.RequireFromString(setup),
		IsActive:     true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", slug, err)
	}
	return product
}

// SeedDefaultCatalog inserts the three rentable products.
func SeedDefaultCatalog(t *testing.T, conn *gorm.DB) []models.Product {
	t.Helper()
	return []models.Product{
		SeedProduct(t, conn, "sauna", 1, "600", "150"),
		SeedProduct(t, conn, "cold-plunge", 2, "125", "125"),
		SeedProduct(t, conn, "fire-pit", 1, "100", "50"),
	}
}

// SeedBooking inserts a booking over [start, end) for the product slugs.
func SeedBooking(t *testing.T, conn *gorm.DB, start, end string, status enums.BookingStatus, products ...string) models.Booking {
	t.Helper()
	booking := models.Booking{
		ID:            uuid.New(),
		CustomerName:  "Test Guest",
		CustomerEmail: "guest@example.com",
		CustomerPhone: "555-0100",
		AddressLine1:  "1 Lake Rd",
		AddressCity:   "Duluth",
		AddressState:  "MN",
		AddressZip:    "55802",
		Products:      pq.StringArray(products),
		StartDate:     types.MustParseDate(start),
		EndDate:       types.MustParseDate(end),
		Status:        status,
	}
	if err := conn.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

// SeedBlock inserts an active blocked date. With no product slugs the block
// covers every product.
func SeedBlock(t *testing.T, conn *gorm.DB, date string, reason enums.BlockReason, products ...string) models.BlockedDate {
	t.Helper()
	block := models.BlockedDate{
		ID:          uuid.New(),
		Date:        types.MustParseDate(date),
		Reason:      reason,
		AllProducts: len(products) == 0,
		Products:    pq.StringArray(products),
		BlockedBy:   "owner@example.com",
		IsActive:    true,
	}
	if err := conn.Create(&block).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}
	return block
}
