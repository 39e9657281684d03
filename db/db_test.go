package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/warehousesim/gridexport/layout"
)

func newTestDB(t *testing.T) *DB {
	db, err := NewDB(filepath.Join(t.TempDir(), "gridexport.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestSnapshot(t *testing.T, name string) layout.Snapshot {
	s, err := layout.NewSnapshot(layout.FactoryData{
		Grid: layout.GridData{Rows: 3, Cols: 3, CellSize: 1, Fraction: 1},
		Floor: layout.ObjectData{
			Name:      "Floor",
			GridCells: []layout.GridCell{{R: 0, C: 0}},
		},
		Shelves: []layout.ObjectData{
			{
				Name:      name,
				GridRect:  layout.GridRect{RowMin: 1, RowMax: 1, ColMin: 0, ColMax: 1},
				GridCells: []layout.GridCell{{R: 1, C: 0}, {R: 1, C: 1}},
			},
		},
		Machines: []layout.ObjectData{},
	})
	require.NoError(t, err)
	return s
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	require.Equal(t, uint(3), version)
	require.False(t, dirty)

	require.NoError(t, db.MigrateUp())
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first := newTestSnapshot(t, "Shelf_A")
	second := newTestSnapshot(t, "Shelf_B")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, db.Save(ctx, second))
	require.NoError(t, db.Save(ctx, first))

	ids, err := db.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, second.ID}, ids)

	got, err := db.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, first.Digest, got.Digest)
	require.True(t, first.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, first.Data, got.Data)
	require.Nil(t, got.Plan)

	plan, err := layout.ParsePlan([]byte(`{
		"delivery_point": [2, 2],
		"path_to_box": [[0, 0], [0, 2]],
		"path_to_delivery": [[0, 2], [2, 2]]
	}`))
	require.NoError(t, err)
	require.NoError(t, db.AttachPlan(ctx, first.ID, plan))

	got, err = db.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, plan, got.Plan)

	// Replacing a plan keeps a single row.
	plan.PathToDelivery = nil
	require.NoError(t, db.AttachPlan(ctx, first.ID, plan))
	got, err = db.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Nil(t, got.Plan.PathToDelivery)
}

func TestStoreKeepsSignature(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	snap := newTestSnapshot(t, "Shelf_A")
	require.NoError(t, layout.Sign(&snap, key))
	require.NoError(t, db.Save(ctx, snap))

	got, err := db.Get(ctx, snap.ID)
	require.NoError(t, err)
	require.Equal(t, snap.Signature, got.Signature)

	signer, err := layout.Signer(got)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), signer)
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.Get(ctx, "missing")
	require.Error(t, err)
	require.True(t, errors.IsType(err, layout.ErrTypeSnapshotNotFound))

	err = db.AttachPlan(ctx, "missing", &layout.Plan{})
	require.True(t, errors.IsType(err, layout.ErrTypeSnapshotNotFound))

	ids, err := db.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestDBIsLayoutStore(t *testing.T) {
	var _ layout.Store = newTestDB(t)
}
