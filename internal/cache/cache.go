// Package cache remembers the lowered code of every node between compiles,
// so callers can tell which nodes changed.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/funflow/internal/compiler"
)

const schema = `
CREATE TABLE IF NOT EXISTS lowered (
	node_id TEXT PRIMARY KEY,
	hash    TEXT NOT NULL,
	code    TEXT NOT NULL
)`

// Entry is the cached lowering of one node.
type Entry struct {
	Node uuid.UUID
	Hash uint64
	Code string
}

// Store is a SQLite-backed cache of lowered nodes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at dsn. Use
// ":memory:" for a throwaway cache.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", dsn, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the cached entry of a node.
func (s *Store) Lookup(ctx context.Context, id uuid.UUID) (Entry, bool, error) {
	var hash, code string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, code FROM lowered WHERE node_id = ?`, id.String()).Scan(&hash, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %s: %w", id, err)
	}
	h, err := parseHash(hash)
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return Entry{Node: id, Hash: h, Code: code}, true, nil
}

// Put stores entries, replacing earlier ones for the same nodes.
func (s *Store) Put(ctx context.Context, entries ...Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lowered (node_id, hash, code) VALUES (?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET hash = excluded.hash, code = excluded.code`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Node.String(), formatHash(e.Hash), e.Code); err != nil {
			return fmt.Errorf("storing %s: %w", e.Node, err)
		}
	}
	return tx.Commit()
}

// Changed returns the nodes of res whose code differs from the cached code,
// new nodes included, in result order.
func (s *Store) Changed(ctx context.Context, res *compiler.Result) ([]uuid.UUID, error) {
	stored, err := s.hashes(ctx)
	if err != nil {
		return nil, err
	}
	var changed []uuid.UUID
	for _, nr := range res.Nodes {
		if h, ok := stored[nr.Node]; !ok || h != nr.Hash {
			changed = append(changed, nr.Node)
		}
	}
	return changed, nil
}

// Prune deletes the entries of nodes not in keep and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep []uuid.UUID) (int, error) {
	stored, err := s.hashes(ctx)
	if err != nil {
		return 0, err
	}
	live := make(map[uuid.UUID]bool, len(keep))
	for _, id := range keep {
		live[id] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	removed := 0
	for id := range stored {
		if live[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lowered WHERE node_id = ?`, id.String()); err != nil {
			return 0, fmt.Errorf("pruning %s: %w", id, err)
		}
		removed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return removed, nil
}

// Sync records res as the current state: it reports the changed nodes,
// stores every result and drops nodes that left the graph.
func (s *Store) Sync(ctx context.Context, res *compiler.Result) ([]uuid.UUID, error) {
	changed, err := s.Changed(ctx, res)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(res.Nodes))
	keep := make([]uuid.UUID, 0, len(res.Nodes))
	for _, nr := range res.Nodes {
		entries = append(entries, Entry{Node: nr.Node, Hash: nr.Hash, Code: nr.Code})
		keep = append(keep, nr.Node)
	}
	if err := s.Put(ctx, entries...); err != nil {
		return nil, err
	}
	if _, err := s.Prune(ctx, keep); err != nil {
		return nil, err
	}
	return changed, nil
}

func (s *Store) hashes(ctx context.Context) (map[uuid.UUID]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, hash FROM lowered`)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]uint64)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("reading cache: %w", err)
		}
		nid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("reading cache: bad node id %q: %w", id, err)
		}
		h, err := parseHash(hash)
		if err != nil {
			return nil, err
		}
		out[nid] = h
	}
	return out, rows.Err()
}

// SQLite integers are signed, so hashes are stored as hex text.
func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func parseHash(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad hash %q: %w", s, err)
	}
	return h, nil
}
