package config

import (
	"sync"
	"testing"
)

func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME", "DATABASE_DSN"} {
		t.Setenv(key, "")
	}
}

func TestGetDatabaseDSNDefault(t *testing.T) {
	clearDBEnv(t)
	instance = nil
	once = *new(sync.Once)

	dsn := GetDatabaseDSN()
	want := "aquamind:aquamind123@tcp(localhost:3306)/aquamind?parseTime=true"
	if dsn != want {
		t.Errorf("Expected default DSN %q, got %q", want, dsn)
	}
}

func TestGetDatabaseDSNFromConfig(t *testing.T) {
	clearDBEnv(t)

	_, err := loadTestConfig(t, `profiles:
  default: "JABALPUR"
database:
  dsn: "configured:pw@tcp(db.local:3306)/history?parseTime=true"
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if dsn := GetDatabaseDSN(); dsn != "configured:pw@tcp(db.local:3306)/history?parseTime=true" {
		t.Errorf("Expected DSN from config file, got %q", dsn)
	}
}

func TestGetDatabaseDSNFromParts(t *testing.T) {
	t.Setenv("DB_USER", "reader")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "water")
	t.Setenv("DATABASE_DSN", "")

	dsn := GetDatabaseDSN()
	want := "reader:secret@tcp(db.internal:3307)/water?parseTime=true"
	if dsn != want {
		t.Errorf("Expected DSN %q, got %q", want, dsn)
	}
}

func TestGetDatabaseDSNExplicitEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DATABASE_DSN", "custom:dsn@tcp(host:3306)/db")

	if dsn := GetDatabaseDSN(); dsn != "custom:dsn@tcp(host:3306)/db" {
		t.Errorf("Expected explicit DSN, got %q", dsn)
	}
}

func TestGetDatabaseDSNEnvWinsOverConfig(t *testing.T) {
	clearDBEnv(t)

	_, err := loadTestConfig(t, `profiles:
  default: "JABALPUR"
database:
  dsn: "configured:pw@tcp(db.local:3306)/history"
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Setenv("DATABASE_DSN", "env:wins@tcp(host:3306)/db")

	if dsn := GetDatabaseDSN(); dsn != "env:wins@tcp(host:3306)/db" {
		t.Errorf("Expected env DSN to win over config, got %q", dsn)
	}
}
