package testutil

import (
	"testing"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}
		cfg := DefaultTestDBConfig()
		if cfg.Host != "localhost" || cfg.Port != "55432" {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.User != "yoohoo" || cfg.DBName != "yoohoo" {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("respects TEST_DB_PORT environment variable", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")
		cfg := DefaultTestDBConfig()
		if cfg.Host != "postgres" || cfg.Port != "5432" {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})
}

func TestGenerateSchemaName(t *testing.T) {
	a, b := generateSchemaName(), generateSchemaName()
	if len(a) != 10 || a[:2] != "t_" {
		t.Errorf("unexpected schema name %q", a)
	}
	if a == b {
		t.Errorf("schema names should differ")
	}
}
