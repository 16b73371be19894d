package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/drtvfeed/internal/models"
)

// Postgres implements StateStore using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Publish upserts the entity's current state and appends it to state_history
// in one transaction.
func (p *Postgres) Publish(ctx context.Context, snap models.Snapshot) error {
	attrs, err := json.Marshal(snap.Attributes)
	if err != nil {
		return fmt.Errorf("Publish: marshal attributes: %w", err)
	}
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO states (entity_id, state, attributes, run_id, updated_at)
			 VALUES ($1, $2, $3, NULLIF($4,''), $5)
			 ON CONFLICT (entity_id) DO UPDATE SET
			   state = EXCLUDED.state, attributes = EXCLUDED.attributes,
			   run_id = EXCLUDED.run_id, updated_at = EXCLUDED.updated_at`,
			snap.EntityID, snap.State, attrs, snap.RunID, snap.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert states: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO state_history (entity_id, state, attributes, run_id, recorded_at)
			 VALUES ($1, $2, $3, NULLIF($4,''), $5)`,
			snap.EntityID, snap.State, attrs, snap.RunID, snap.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert state_history: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

// Latest returns the current state of entityID.
func (p *Postgres) Latest(ctx context.Context, entityID string) (*models.Snapshot, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT entity_id, state, attributes, COALESCE(run_id, ''), updated_at
		 FROM states WHERE entity_id = $1`,
		entityID,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return snap, nil
}

// History returns past states of entityID, newest first.
func (p *Postgres) History(ctx context.Context, entityID string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := p.pool.Query(ctx,
		`SELECT entity_id, state, attributes, COALESCE(run_id, ''), recorded_at
		 FROM state_history WHERE entity_id = $1
		 ORDER BY recorded_at DESC, id DESC LIMIT $2`,
		entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("History: %w", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return out, nil
}

func scanSnapshot(row pgx.Row) (*models.Snapshot, error) {
	var snap models.Snapshot
	var attrs []byte
	if err := row.Scan(&snap.EntityID, &snap.State, &attrs, &snap.RunID, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attrs, &snap.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return &snap, nil
}
