package registry

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/euphemism/cratedocs/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// One connection keeps transactions on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// addTestCrate inserts a crate with one release per version, oldest first.
func addTestCrate(t *testing.T, s *Store, name string, versions ...string) *Crate {
	t.Helper()
	c := &Crate{Name: name, Description: name + " crate"}
	if err := s.AddCrate(c); err != nil {
		t.Fatalf("add crate %s: %v", name, err)
	}
	base := time.Now().Add(-time.Duration(len(versions)) * time.Hour)
	for i, v := range versions {
		r := &Release{
			CrateID:    c.ID,
			Version:    v,
			ReleasedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AddRelease(r); err != nil {
			t.Fatalf("add release %s/%s: %v", name, v, err)
		}
	}
	return c
}
