package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lokapasar/lokapasar-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS checkout_groups",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_checkout_groups_gateway_order_id",
		"CREATE INDEX IF NOT EXISTS idx_orders_org_id_status",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_catalog.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_variants",
		"CHECK (stock >= 0)",
		"deleted_at    timestamptz",
		"CREATE INDEX IF NOT EXISTS idx_categories_deleted_at",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationHasUniqueEventIndex(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")
	if !strings.Contains(content, "ux_outbox_events_event_aggregate") {
		t.Error("missing unique event/aggregate index")
	}
	if !strings.Contains(content, "idx_outbox_events_unpublished") {
		t.Error("missing partial index on unpublished rows")
	}
}

func TestOrganizationForeignKeysCascade(t *testing.T) {
	patterns := []string{
		"*_create_catalog.sql",
		"*_create_cart_items.sql",
		"*_create_orders.sql",
		"*_create_coupons.sql",
		"*_create_withdrawals_and_ledger.sql",
	}
	for _, pattern := range patterns {
		content := readMigration(t, pattern)
		for _, line := range strings.Split(content, "\n") {
			if strings.Contains(line, "REFERENCES organizations") && !strings.Contains(line, "ON DELETE CASCADE") {
				t.Errorf("%s: organizations FK must cascade so merchant deletion stays hard: %s",
					pattern, strings.TrimSpace(line))
			}
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
