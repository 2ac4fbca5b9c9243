package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedFS_ContainsSchemaMigration(t *testing.T) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	found := false
	for _, entry := range entries {
		if entry.Name() == "001_analytics_schema.sql" {
			found = true
			break
		}
	}
	if !found {
		t.Error("001_analytics_schema.sql not found in embedded FS")
	}
}

func TestEmbeddedFS_SchemaMigrationReadable(t *testing.T) {
	content, err := FS.ReadFile("001_analytics_schema.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	s := string(content)
	if !strings.Contains(s, "-- +goose Up") {
		t.Error("migration missing '-- +goose Up' directive")
	}
	if !strings.Contains(s, "-- +goose Down") {
		t.Error("migration missing '-- +goose Down' directive")
	}
	for _, table := range []string{"dim_customer", "bridge_film_actor", "fact_rental", "sync_state"} {
		if !strings.Contains(s, "CREATE TABLE "+table) {
			t.Errorf("migration missing %s table creation", table)
		}
	}
}
