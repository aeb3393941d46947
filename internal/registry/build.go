package registry

import (
	"fmt"
	"time"
)

// BuildStatus is the lifecycle state of a documentation build.
type BuildStatus string

const (
	BuildQueued     BuildStatus = "queued"
	BuildInProgress BuildStatus = "in_progress"
	BuildSuccess    BuildStatus = "success"
	BuildFailure    BuildStatus = "failure"
)

// Build records one documentation build attempt for a release.
type Build struct {
	ID           int64
	ReleaseID    int64
	Status       BuildStatus
	RustcVersion string
	Log          string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

func addBuild(q querier, b *Build) error {
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now()
	}
	if b.Status == "" {
		b.Status = BuildQueued
	}
	result, err := q.Exec(`
		INSERT INTO builds (release_id, status, rustc_version, log, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ReleaseID, b.Status, b.RustcVersion, b.Log, b.StartedAt, b.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// AddBuild inserts a new build record. Sets ID on the struct.
func (s *Store) AddBuild(b *Build) error { return addBuild(s.db, b) }

// AddBuild inserts a new build record within a transaction.
func (t *Tx) AddBuild(b *Build) error { return addBuild(t.tx, b) }

// GetBuild retrieves a build by ID.
// Returns ErrNotFound if the build does not exist.
func (s *Store) GetBuild(id int64) (*Build, error) {
	b := &Build{}
	err := s.db.QueryRow(`
		SELECT id, release_id, status, rustc_version, log, started_at, finished_at
		FROM builds WHERE id = ?`, id,
	).Scan(&b.ID, &b.ReleaseID, &b.Status, &b.RustcVersion, &b.Log, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("get build %d: %w", id, mapSQLiteError(err))
	}
	return b, nil
}

// ListBuilds returns all builds of a release, newest first.
func (s *Store) ListBuilds(releaseID int64) ([]*Build, error) {
	rows, err := s.db.Query(`
		SELECT id, release_id, status, rustc_version, log, started_at, finished_at
		FROM builds WHERE release_id = ?
		ORDER BY started_at DESC, id DESC`, releaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		b := &Build{}
		if err := rows.Scan(&b.ID, &b.ReleaseID, &b.Status, &b.RustcVersion, &b.Log, &b.StartedAt, &b.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// UpdateBuild sets the status, log, and finish time of a build.
func (s *Store) UpdateBuild(b *Build) error {
	_, err := s.db.Exec(`
		UPDATE builds SET status = ?, rustc_version = ?, log = ?, finished_at = ?
		WHERE id = ?`,
		b.Status, b.RustcVersion, b.Log, b.FinishedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update build %d: %w", b.ID, mapSQLiteError(err))
	}
	return nil
}

// FailStaleBuilds marks builds that have been in progress since before the
// cutoff as failed. Returns the number of builds updated.
func (s *Store) FailStaleBuilds(cutoff time.Time) (int64, error) {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE builds SET status = ?, finished_at = ?
		WHERE status IN (?, ?) AND started_at < ?`,
		BuildFailure, now, BuildQueued, BuildInProgress, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale builds: %w", mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
