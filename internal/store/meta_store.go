package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/stampcam/internal/domain"
)

// metaKey names the singleton state row.
const metaKey = "state"

// MetaStore holds the AppMeta singleton. RegisteredRooms is not stored here;
// it is read from the rooms table by the caller.
type MetaStore struct {
	db *sql.DB
}

func NewMetaStore(db *sql.DB) *MetaStore {
	return &MetaStore{db: db}
}

// Get returns the current state, writing the defaults on first access.
func (s *MetaStore) Get(ctx context.Context) (*domain.AppMeta, error) {
	m := domain.DefaultMeta()
	var lastShot sql.NullInt64
	var incomplete int
	err := s.db.QueryRowContext(ctx, `
		SELECT project_name, room_draft, active_room, active_device_key,
			last_shot_id, show_incomplete_only
		FROM meta WHERE key = ?
	`, metaKey).Scan(&m.ProjectName, &m.RoomDraft, &m.ActiveRoom, &m.ActiveDeviceKey,
		&lastShot, &incomplete)

	if errors.Is(err, sql.ErrNoRows) {
		if err := s.Put(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meta: %w", err)
	}

	if lastShot.Valid {
		id := lastShot.Int64
		m.LastShotID = &id
	}
	m.ShowIncompleteOnly = incomplete != 0
	return m, nil
}

// Put replaces the stored state with m.
func (s *MetaStore) Put(ctx context.Context, m *domain.AppMeta) error {
	var lastShot sql.NullInt64
	if m.LastShotID != nil {
		lastShot = sql.NullInt64{Int64: *m.LastShotID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, project_name, room_draft, active_room, active_device_key,
			last_shot_id, show_incomplete_only)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			project_name         = excluded.project_name,
			room_draft           = excluded.room_draft,
			active_room          = excluded.active_room,
			active_device_key    = excluded.active_device_key,
			last_shot_id         = excluded.last_shot_id,
			show_incomplete_only = excluded.show_incomplete_only
	`, metaKey, m.ProjectName, m.RoomDraft, m.ActiveRoom, m.ActiveDeviceKey,
		lastShot, boolToInt(m.ShowIncompleteOnly))
	if err != nil {
		return fmt.Errorf("failed to put meta: %w", err)
	}
	return nil
}

func (s *MetaStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("failed to clear meta: %w", err)
	}
	return nil
}
