package registry

import (
	"fmt"
	"time"
)

// Crate is a published crate known to the registry.
type Crate struct {
	ID          int64
	Name        string
	Description string
	Repository  string
	AddedAt     time.Time
	UpdatedAt   time.Time
}

// Owner is a crate owner (user or team login).
type Owner struct {
	ID    int64
	Login string
	Name  string
}

func addCrate(q querier, c *Crate) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO crates (name, description, repository, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.Repository, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert crate: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	c.AddedAt = now
	c.UpdatedAt = now
	return nil
}

// AddCrate inserts a new crate.
// Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddCrate(c *Crate) error { return addCrate(s.db, c) }

// AddCrate inserts a new crate within a transaction.
func (t *Tx) AddCrate(c *Crate) error { return addCrate(t.tx, c) }

func getCrate(q querier, name string) (*Crate, error) {
	c := &Crate{}
	err := q.QueryRow(`
		SELECT id, name, description, repository, added_at, updated_at
		FROM crates WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Repository, &c.AddedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get crate %q: %w", name, mapSQLiteError(err))
	}
	return c, nil
}

// GetCrate retrieves a crate by name.
// Returns ErrNotFound if the crate does not exist.
func (s *Store) GetCrate(name string) (*Crate, error) { return getCrate(s.db, name) }

// GetCrate retrieves a crate by name within a transaction.
func (t *Tx) GetCrate(name string) (*Crate, error) { return getCrate(t.tx, name) }

// ListCrates returns all crates ordered by name, up to limit.
// A limit of 0 means no limit.
func (s *Store) ListCrates(limit int) ([]*Crate, error) {
	query := `
		SELECT id, name, description, repository, added_at, updated_at
		FROM crates ORDER BY name`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list crates: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var crates []*Crate
	for rows.Next() {
		c := &Crate{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Repository, &c.AddedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crate: %w", err)
		}
		crates = append(crates, c)
	}
	return crates, rows.Err()
}

// AddOwner inserts a new owner.
func (s *Store) AddOwner(o *Owner) error {
	result, err := s.db.Exec(`INSERT INTO owners (login, name) VALUES (?, ?)`, o.Login, o.Name)
	if err != nil {
		return fmt.Errorf("insert owner: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	o.ID = id
	return nil
}

// GetOwner retrieves an owner by login.
// Returns ErrNotFound if the owner does not exist.
func (s *Store) GetOwner(login string) (*Owner, error) {
	o := &Owner{}
	err := s.db.QueryRow(`SELECT id, login, name FROM owners WHERE login = ?`, login).
		Scan(&o.ID, &o.Login, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("get owner %q: %w", login, mapSQLiteError(err))
	}
	return o, nil
}

// SetCrateOwner records ownership of a crate.
func (s *Store) SetCrateOwner(crateID, ownerID int64) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO crate_owners (crate_id, owner_id) VALUES (?, ?)`,
		crateID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("set crate owner: %w", mapSQLiteError(err))
	}
	return nil
}

// ListCrateOwners returns the owners of a crate ordered by login.
func (s *Store) ListCrateOwners(crateID int64) ([]*Owner, error) {
	rows, err := s.db.Query(`
		SELECT o.id, o.login, o.name
		FROM owners o
		JOIN crate_owners co ON co.owner_id = o.id
		WHERE co.crate_id = ?
		ORDER BY o.login`, crateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list crate owners: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var owners []*Owner
	for rows.Next() {
		o := &Owner{}
		if err := rows.Scan(&o.ID, &o.Login, &o.Name); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// ListCratesByOwner returns all crates owned by the given login, ordered by name.
func (s *Store) ListCratesByOwner(login string) ([]*Crate, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.description, c.repository, c.added_at, c.updated_at
		FROM crates c
		JOIN crate_owners co ON co.crate_id = c.id
		JOIN owners o ON o.id = co.owner_id
		WHERE o.login = ?
		ORDER BY c.name`, login,
	)
	if err != nil {
		return nil, fmt.Errorf("list crates by owner: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var crates []*Crate
	for rows.Next() {
		c := &Crate{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Repository, &c.AddedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crate: %w", err)
		}
		crates = append(crates, c)
	}
	return crates, rows.Err()
}
