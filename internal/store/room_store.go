package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/stampcam/internal/domain"
)

type RoomStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db, now: time.Now}
}

// Create registers name. Registering an existing room is a no-op and returns
// the original record.
func (s *RoomStore) Create(ctx context.Context, name string) (*domain.Room, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, toMillis(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return s.Get(ctx, name)
}

func (s *RoomStore) Get(ctx context.Context, name string) (*domain.Room, error) {
	room := &domain.Room{}
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT name, created_at FROM rooms WHERE name = ?
	`, name).Scan(&room.Name, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	room.CreatedAt = fromMillis(created)
	return room, nil
}

// List returns rooms in registration order.
func (s *RoomStore) List(ctx context.Context) ([]*domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, created_at FROM rooms ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room := &domain.Room{}
		var created int64
		if err := rows.Scan(&room.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		room.CreatedAt = fromMillis(created)
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	return rooms, nil
}

func (s *RoomStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rooms WHERE name = ?
	`, name)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return fmt.Errorf("room %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

func (s *RoomStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("failed to clear rooms: %w", err)
	}
	return nil
}
