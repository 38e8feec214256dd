package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmorrison-au/teashop-backend/pkg/migrate"
)

func TestMigrationsValidate(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations invalid: %v", err)
	}
}

func TestCartMigrationEnforcesOwnership(t *testing.T) {
	content := readMigration(t, "*_users_carts.sql")

	checks := []string{
		"CREATE TABLE carts",
		"CONSTRAINT one_cart_owner CHECK",
		"CREATE TABLE cart_items",
		"quantity   integer NOT NULL CHECK (quantity > 0)",
		"CONSTRAINT one_product_per_cart UNIQUE (cart_id, product_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationEnforcesStateMachine(t *testing.T) {
	content := readMigration(t, "*_orders.sql")

	checks := []string{
		"CREATE TABLE frozen_carts",
		"CREATE TABLE frozen_cart_items",
		"CREATE TABLE orders",
		"CHECK (status IN ('created', 'pending', 'success', 'canceled'))",
		"CONSTRAINT paid_orders_have_email CHECK",
		"CREATE TABLE addresses",
		"CONSTRAINT one_address_owner CHECK",
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
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
