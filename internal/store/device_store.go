package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/stampcam/internal/domain"
)

type DeviceStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db, now: time.Now}
}

const deviceColumns = `device_key, room_name, device_index, device_type, checked, updated_at`

// Upsert inserts the device or, when the key already exists, refreshes its
// room, index and updated_at. Type and checked state are preserved.
func (s *DeviceStore) Upsert(ctx context.Context, key, room string, index int) (*domain.Device, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (device_key, room_name, device_index, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_key) DO UPDATE SET
			room_name    = excluded.room_name,
			device_index = excluded.device_index,
			updated_at   = excluded.updated_at
	`, key, room, index, toMillis(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}
	return s.GetByKey(ctx, key)
}

func (s *DeviceStore) GetByKey(ctx context.Context, key string) (*domain.Device, error) {
	d, err := scanDevice(s.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+` FROM devices WHERE device_key = ?
	`, key))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

// ListByRoom returns the room's devices ordered by index.
func (s *DeviceStore) ListByRoom(ctx context.Context, room string) ([]*domain.Device, error) {
	return s.list(ctx, `
		SELECT `+deviceColumns+` FROM devices WHERE room_name = ?
		ORDER BY device_index ASC
	`, room)
}

// List returns every device ordered by room then index.
func (s *DeviceStore) List(ctx context.Context) ([]*domain.Device, error) {
	return s.list(ctx, `
		SELECT `+deviceColumns+` FROM devices ORDER BY room_name ASC, device_index ASC
	`)
}

func (s *DeviceStore) list(ctx context.Context, query string, args ...any) ([]*domain.Device, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

func (s *DeviceStore) SetType(ctx context.Context, key, deviceType string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET device_type = ?, updated_at = ? WHERE device_key = ?
	`, deviceType, toMillis(s.now()), key)
	if err != nil {
		return fmt.Errorf("failed to set device type: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return fmt.Errorf("device %q: %w", key, domain.ErrNotFound)
	}
	return nil
}

// SetChecked writes the derived completion flag. It reports false when no
// device has the key.
func (s *DeviceStore) SetChecked(ctx context.Context, key string, checked bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET checked = ?, updated_at = ? WHERE device_key = ?
	`, boolToInt(checked), toMillis(s.now()), key)
	if err != nil {
		return false, fmt.Errorf("failed to set device checked: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ok, nil
}

// DeleteByRoom removes every device of room and returns how many were removed.
func (s *DeviceStore) DeleteByRoom(ctx context.Context, room string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM devices WHERE room_name = ?
	`, room)
	if err != nil {
		return 0, fmt.Errorf("failed to delete devices for room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *DeviceStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("failed to clear devices: %w", err)
	}
	return nil
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	d := &domain.Device{}
	var checked int
	var updated int64
	if err := row.Scan(&d.Key, &d.RoomName, &d.Index, &d.DeviceType, &checked, &updated); err != nil {
		return nil, err
	}
	d.Checked = checked != 0
	d.UpdatedAt = fromMillis(updated)
	return d, nil
}
