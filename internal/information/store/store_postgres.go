package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"thingapi/internal/information/models"
	"thingapi/pkg/platform/sentinel"
)

const informationSchema = `
CREATE TABLE IF NOT EXISTS information (
	seq           BIGSERIAL,
	id            TEXT PRIMARY KEY,
	group_name    TEXT NOT NULL,
	thing         TEXT NOT NULL,
	name          TEXT,
	location_name TEXT,
	location_lng  DOUBLE PRECISION,
	location_lat  DOUBLE PRECISION,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS information_group_name_idx ON information (group_name);
`

const informationColumns = `id, group_name, thing, name, location_name, location_lng, location_lat, created_at, updated_at`

// PostgresStore persists records in a single PostgreSQL table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table and index when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, informationSchema); err != nil {
		return fmt.Errorf("ensure information schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, info *models.Information) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO information (id, group_name, thing, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, info.Group, info.Thing, info.CreatedAt, info.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert information: %w", err)
	}
	info.ID = id
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Information, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+informationColumns+` FROM information WHERE id = $1`, id)
	info, err := scanInformation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find information by id: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) FindByGroup(ctx context.Context, group string) ([]*models.Information, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+informationColumns+` FROM information WHERE group_name = $1 ORDER BY seq`, group)
	if err != nil {
		return nil, fmt.Errorf("find information by group: %w", err)
	}
	return collectRows(rows)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Information, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+informationColumns+` FROM information ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("find all information: %w", err)
	}
	return collectRows(rows)
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, id string, update models.LocationUpdate) (*models.Information, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE information
		SET name = $2, location_name = $3, location_lng = $4, location_lat = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+informationColumns,
		id, update.Name, update.LocationName, update.LocationGeo.Lng, update.LocationGeo.Lat, update.UpdatedAt,
	)
	info, err := scanInformation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update information location: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (*models.Information, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM information WHERE id = $1 RETURNING `+informationColumns, id)
	info, err := scanInformation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete information: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInformation(row rowScanner) (*models.Information, error) {
	var (
		info         models.Information
		name         sql.NullString
		locationName sql.NullString
		lng          sql.NullFloat64
		lat          sql.NullFloat64
	)
	if err := row.Scan(&info.ID, &info.Group, &info.Thing, &name, &locationName, &lng, &lat, &info.CreatedAt, &info.UpdatedAt); err != nil {
		return nil, err
	}
	info.Name = name.String
	info.LocationName = locationName.String
	if lng.Valid && lat.Valid {
		info.LocationGeo = &models.LngLat{Lng: lng.Float64, Lat: lat.Float64}
	}
	return &info, nil
}

func collectRows(rows *sql.Rows) ([]*models.Information, error) {
	defer rows.Close()
	out := make([]*models.Information, 0)
	for rows.Next() {
		info, err := scanInformation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan information: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate information: %w", err)
	}
	return out, nil
}
