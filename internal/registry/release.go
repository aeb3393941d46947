package registry

import (
	"fmt"
	"time"
)

// Release is a published version of a crate.
type Release struct {
	ID          int64
	CrateID     int64
	Version     string
	Description string
	Yanked      bool
	ReleasedAt  time.Time
}

// ReleaseSummary is a release joined with its crate, for listings.
type ReleaseSummary struct {
	CrateName   string
	Version     string
	Description string
	ReleasedAt  time.Time
}

func addRelease(q querier, r *Release) error {
	if r.ReleasedAt.IsZero() {
		r.ReleasedAt = time.Now()
	}
	result, err := q.Exec(`
		INSERT INTO releases (crate_id, version, description, yanked, released_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.CrateID, r.Version, r.Description, r.Yanked, r.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("insert release: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// AddRelease inserts a new release. Sets ID on the struct.
func (s *Store) AddRelease(r *Release) error { return addRelease(s.db, r) }

// AddRelease inserts a new release within a transaction.
func (t *Tx) AddRelease(r *Release) error { return addRelease(t.tx, r) }

func scanReleases(q querier, query string, args ...any) ([]*Release, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query releases: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var releases []*Release
	for rows.Next() {
		r := &Release{}
		if err := rows.Scan(&r.ID, &r.CrateID, &r.Version, &r.Description, &r.Yanked, &r.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		releases = append(releases, r)
	}
	return releases, rows.Err()
}

// ListReleases returns all releases of a crate, newest first.
func (s *Store) ListReleases(crateID int64) ([]*Release, error) {
	return scanReleases(s.db, `
		SELECT id, crate_id, version, description, yanked, released_at
		FROM releases WHERE crate_id = ?
		ORDER BY released_at DESC, id DESC`, crateID)
}

func getRelease(q querier, crateID int64, version string) (*Release, error) {
	r := &Release{}
	err := q.QueryRow(`
		SELECT id, crate_id, version, description, yanked, released_at
		FROM releases WHERE crate_id = ? AND version = ?`, crateID, version,
	).Scan(&r.ID, &r.CrateID, &r.Version, &r.Description, &r.Yanked, &r.ReleasedAt)
	if err != nil {
		return nil, fmt.Errorf("get release %d/%s: %w", crateID, version, mapSQLiteError(err))
	}
	return r, nil
}

// GetRelease retrieves a release by crate and exact version string.
// Returns ErrNotFound if no such release exists.
func (s *Store) GetRelease(crateID int64, version string) (*Release, error) {
	return getRelease(s.db, crateID, version)
}

// GetRelease retrieves a release by crate and exact version within a transaction.
func (t *Tx) GetRelease(crateID int64, version string) (*Release, error) {
	return getRelease(t.tx, crateID, version)
}

// RecentReleases returns the most recently published non-yanked releases
// across all crates.
func (s *Store) RecentReleases(limit int) ([]*ReleaseSummary, error) {
	rows, err := s.db.Query(`
		SELECT c.name, r.version, r.description, r.released_at
		FROM releases r
		JOIN crates c ON c.id = r.crate_id
		WHERE r.yanked = 0
		ORDER BY r.released_at DESC, r.id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent releases: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var summaries []*ReleaseSummary
	for rows.Next() {
		rs := &ReleaseSummary{}
		if err := rows.Scan(&rs.CrateName, &rs.Version, &rs.Description, &rs.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan release summary: %w", err)
		}
		summaries = append(summaries, rs)
	}
	return summaries, rows.Err()
}

// SearchReleases returns the latest non-yanked release of every crate whose
// name or description matches the LIKE pattern, ordered by name.
func (s *Store) SearchReleases(pattern string, limit int) ([]*ReleaseSummary, error) {
	rows, err := s.db.Query(`
		SELECT c.name, r.version, r.description, MAX(r.released_at) AS released_at
		FROM releases r
		JOIN crates c ON c.id = r.crate_id
		WHERE r.yanked = 0 AND (c.name LIKE ? OR c.description LIKE ?)
		GROUP BY c.id
		ORDER BY c.name
		LIMIT ?`, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search releases: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var summaries []*ReleaseSummary
	for rows.Next() {
		rs := &ReleaseSummary{}
		if err := rows.Scan(&rs.CrateName, &rs.Version, &rs.Description, &rs.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan release summary: %w", err)
		}
		summaries = append(summaries, rs)
	}
	return summaries, rows.Err()
}

// SetReleaseYanked marks a release yanked or un-yanked.
// Returns ErrNotFound if no such release exists.
func (s *Store) SetReleaseYanked(crateID int64, version string, yanked bool) error {
	result, err := s.db.Exec(`
		UPDATE releases SET yanked = ? WHERE crate_id = ? AND version = ?`,
		yanked, crateID, version,
	)
	if err != nil {
		return fmt.Errorf("yank release %d/%s: %w", crateID, version, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("yank release %d/%s: %w", crateID, version, ErrNotFound)
	}
	return nil
}

// CrateNames returns the names of all crates that have at least one
// non-yanked release.
func (s *Store) CrateNames() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT c.name
		FROM crates c
		JOIN releases r ON r.crate_id = c.id
		WHERE r.yanked = 0
		ORDER BY c.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("crate names: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan crate name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
