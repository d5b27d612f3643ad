package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ilng/roster/internal/store"
)

const snapshotRowID = 1

// SnapshotPersister keeps the store document in a single JSONB row.
type SnapshotPersister struct {
	db *sql.DB
}

// NewSnapshotPersister returns a persister backed by the roster_snapshot
// table. Run the migrations first.
func NewSnapshotPersister(db *sql.DB) *SnapshotPersister {
	return &SnapshotPersister{db: db}
}

// Load reads the document. An empty table yields an empty snapshot.
func (p *SnapshotPersister) Load(ctx context.Context) (*store.Snapshot, error) {
	var document []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT document FROM roster_snapshot WHERE id = $1`, snapshotRowID,
	).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return store.NewSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	return store.Decode(document)
}

// Save upserts the whole document.
func (p *SnapshotPersister) Save(ctx context.Context, snap *store.Snapshot) error {
	document, err := store.Encode(snap)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO roster_snapshot (id, document, saved_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, saved_at = EXCLUDED.saved_at`,
		snapshotRowID, document,
	)
	return err
}
