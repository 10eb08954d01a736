package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/conference-portal/internal/config"
	"github.com/iliyamo/conference-portal/internal/database"
	"github.com/iliyamo/conference-portal/internal/logging"
)

// newMySQLDB starts MySQL in Docker and applies the migrations.
func newMySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("portal_test"),
		tcmysql.WithUsername("portal"),
		tcmysql.WithPassword("test-password"),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := config.DBConfig{
		Driver:       database.DriverMySQL,
		User:         "portal",
		Pass:         "test-password",
		Host:         host,
		Port:         port.Port(),
		Name:         "portal_test",
		MaxOpenConns: 10,
	}
	db, err := database.Setup(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("setup mysql: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMySQL_ConcurrentCreateSameHallSlot(t *testing.T) {
	db := newMySQLDB(t)
	f := seed(t, db)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.schedule.Create(context.Background(), f.entry(f.main, f.d1s1, "Talk"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicate):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dups != workers-1 {
		t.Fatalf("ok=%d dups=%d", ok, dups)
	}
}

func TestMySQL_DeleteOrphansFiles(t *testing.T) {
	db := newMySQLDB(t)
	f := seed(t, db)
	ctx := context.Background()

	e := f.entry(f.roomB, f.d2s1, "Talk")
	if err := f.schedule.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	file := newFile(e.ID, f.roomB.ID)
	if err := f.files.Create(ctx, file); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := f.schedule.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := f.files.GetByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ScheduleID != nil {
		t.Errorf("ScheduleID = %d, want nil", *got.ScheduleID)
	}
}
