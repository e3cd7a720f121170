package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE orders",
		"REFERENCES ticket_types (id)",
		"CHECK (quantity > 0)",
		"CHECK (total_price_minor >= 0)",
		"'pending', 'confirmed', 'cancelled', 'expired', 'failed'",
		"idx_orders_pending_expires_at",
		"DROP TABLE orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestListingsMigrationEnforcesSingleActiveListing(t *testing.T) {
	content := readMigration(t, "*_create_tickets_and_listings.sql")

	checks := []string{
		"token_id text NOT NULL UNIQUE",
		"CREATE UNIQUE INDEX uq_marketplace_listings_active_ticket",
		"WHERE status = 'active'",
		"'active', 'sold', 'cancelled', 'expired'",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
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
		t.Fatalf("no migration file matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
