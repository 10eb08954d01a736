package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iliyamo/conference-portal/internal/config"
	"github.com/iliyamo/conference-portal/internal/logging"
)

func TestSetup_SQLite(t *testing.T) {
	cfg := config.DBConfig{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "portal.db")}

	db, err := Setup(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"conferences", "halls", "speakers", "time_slots", "schedules", "uploaded_files"} {
		var n int
		if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	// a second run is a no-op
	if err := Migrate(cfg, logging.Discard()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSetup_SQLiteEnforcesHallSlotUniqueness(t *testing.T) {
	cfg := config.DBConfig{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "portal.db")}
	db, err := Setup(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	stmts := []string{
		`INSERT INTO conferences (id, name, total_days) VALUES (1, 'C', 2)`,
		`INSERT INTO halls (id, conference_id, name) VALUES (1, 1, 'Main Hall')`,
		`INSERT INTO speakers (id, speaker_code, full_name) VALUES (1, 'SP001', 'Ada')`,
		`INSERT INTO time_slots (id, conference_id, day_number, start_time, end_time, slot_order) VALUES (1, 1, 1, '09:00:00', '10:00:00', 1)`,
		`INSERT INTO schedules (conference_id, speaker_id, hall_id, slot_id, session_title) VALUES (1, 1, 1, 1, 'A')`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	_, err = db.ExecContext(ctx, `INSERT INTO schedules (conference_id, speaker_id, hall_id, slot_id, session_title) VALUES (1, 1, 1, 1, 'B')`)
	if err == nil || !strings.Contains(err.Error(), "UNIQUE") {
		t.Fatalf("expected UNIQUE violation, got %v", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.DBConfig{User: "u", Pass: "p", Host: "db", Port: "3306", Name: "portal"})
	want := "u:p@tcp(db:3306)/portal?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}
