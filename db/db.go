// Package db stores layout snapshots in SQLite.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/warehousesim/gridexport/layout"
	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// DB is a layout.Store backed by SQLite.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and brings its schema up to date.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New("opening database failed").
			WithTag("path", path).
			Wrap(err)
	}

	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, errors.New("applying pragma failed").
				WithTag("pragma", p).
				Wrap(err)
		}
	}

	db := &DB{DB: sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Save(ctx context.Context, s layout.Snapshot) error {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return errors.New("encoding snapshot failed").
			WithTag("id", s.ID).
			Wrap(err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, digest, signature, data) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET created_at = excluded.created_at, digest = excluded.digest,
		 signature = excluded.signature, data = excluded.data`,
		s.ID, s.CreatedAt.UnixNano(), s.Digest, s.Signature, string(data),
	)
	if err != nil {
		return errors.New("saving snapshot failed").
			WithTag("id", s.ID).
			Wrap(err)
	}

	if s.Plan != nil {
		return db.AttachPlan(ctx, s.ID, s.Plan)
	}
	return nil
}

func (db *DB) Get(ctx context.Context, id string) (layout.Snapshot, error) {
	var (
		createdAt int64
		data      string
		plan      sql.NullString
		s         = layout.Snapshot{ID: id}
	)

	err := db.QueryRowContext(ctx,
		`SELECT s.created_at, s.digest, s.signature, s.data, p.data
		 FROM snapshots s LEFT JOIN plans p ON p.snapshot_id = s.id
		 WHERE s.id = ?`,
		id,
	).Scan(&createdAt, &s.Digest, &s.Signature, &data, &plan)
	if err == sql.ErrNoRows {
		return layout.Snapshot{}, layout.NotFound(id)
	}
	if err != nil {
		return layout.Snapshot{}, errors.New("reading snapshot failed").
			WithTag("id", id).
			Wrap(err)
	}

	s.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return layout.Snapshot{}, errors.New("decoding snapshot failed").
			WithTag("id", id).
			Wrap(err)
	}

	if plan.Valid {
		var p layout.Plan
		if err := json.Unmarshal([]byte(plan.String), &p); err != nil {
			return layout.Snapshot{}, errors.New("decoding plan failed").
				WithTag("id", id).
				Wrap(err)
		}
		s.Plan = &p
	}
	return s, nil
}

func (db *DB) List(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM snapshots ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.New("listing snapshots failed").Wrap(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.New("listing snapshots failed").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New("listing snapshots failed").Wrap(err)
	}
	return ids, nil
}

func (db *DB) AttachPlan(ctx context.Context, id string, p *layout.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.New("encoding plan failed").
			WithTag("id", id).
			Wrap(err)
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return errors.New("reading snapshot failed").
			WithTag("id", id).
			Wrap(err)
	}
	if exists == 0 {
		return layout.NotFound(id)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO plans (snapshot_id, updated_at, data) VALUES (?, ?, ?)
		 ON CONFLICT (snapshot_id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data`,
		id, time.Now().UnixNano(), string(data),
	)
	if err != nil {
		return errors.New("saving plan failed").
			WithTag("id", id).
			Wrap(err)
	}
	return nil
}
