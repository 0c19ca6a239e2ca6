package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/relacksation-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	versions, err := migrate.Validate(os.DirFS("migrations"))
	if err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("expected migrations on disk")
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := migrate.Validate(migrate.Embedded())
	if err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	onDisk, err := migrate.Validate(os.DirFS("migrations"))
	if err != nil {
		t.Fatalf("validate disk migrations: %v", err)
	}
	if strings.Join(embedded, ",") != strings.Join(onDisk, ",") {
		t.Fatalf("embedded %v differs from disk %v", embedded, onDisk)
	}
	if embedded[0] != "20240601000000" {
		t.Fatalf("enum types must apply first, got %s", embedded[0])
	}
}

func TestEnumMigrationMatchesDomainValues(t *testing.T) {
	assertContains(t, readMigration(t, "create_enum_types"), []string{
		"CREATE TYPE booking_status AS ENUM ('pending', 'confirmed', 'canceled')",
		"CREATE TYPE block_reason AS ENUM ('maintenance', 'holiday', 'owner-block', 'weather', 'other')",
		"'booking_created'",
		"DROP TYPE IF EXISTS booking_status",
	})
}

func TestBookingsMigrationEnforcesHalfOpenRange(t *testing.T) {
	assertContains(t, readMigration(t, "create_bookings_table"), []string{
		"CREATE TABLE IF NOT EXISTS bookings",
		"products text[] NOT NULL",
		"CHECK (start_date < end_date)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_range_status ON bookings (start_date, end_date, status)",
		"DROP TABLE IF EXISTS bookings",
	})
}

func TestBlockedDatesMigrationHasPartialUniqueIndex(t *testing.T) {
	assertContains(t, readMigration(t, "create_blocked_dates_table"), []string{
		"CREATE TABLE IF NOT EXISTS blocked_dates",
		"CREATE UNIQUE INDEX IF NOT EXISTS blocked_dates_active_date_idx ON blocked_dates (date) WHERE is_active",
	})
}

func TestProductsMigrationAndSeed(t *testing.T) {
	assertContains(t, readMigration(t, "create_products_table"), []string{
		"CONSTRAINT products_slug_key UNIQUE (slug)",
		"CHECK (capacity >= 0)",
		"nightly_price numeric(10,2) NOT NULL",
	})
	assertContains(t, readMigration(t, "seed_products"), []string{
		"('sauna', 'sauna', 'Mobile Sauna'",
		"1, 600.00, 150.00, true)",
		"2, 125.00, 125.00, true)",
		"1, 100.00, 50.00, true)",
		"ON CONFLICT (slug) DO NOTHING",
	})
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "Add Booking Notes!", at)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260304050607_add_booking_notes.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	if _, err := migrate.Validate(os.DirFS(dir)); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add booking notes", at); err == nil {
		t.Fatal("expected collision on identical version and name")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", at); err == nil {
		t.Fatal("expected error for unusable name")
	}
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name":   {"1_x.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
		"no down":    {"20240101000000_x.sql": {Data: []byte("-- +goose Up\n")}},
		"down first": {"20240101000000_x.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
		"duplicate": {
			"20240101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20240101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		if _, err := migrate.Validate(fsys); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20240601000300"); err != nil || v != 20240601000300 {
		t.Fatalf("unexpected parse result %d, %v", v, err)
	}
	for _, raw := range []string{"", "2024", "20241301000000", "abcdefghijklmn"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
