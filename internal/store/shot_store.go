package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/stampcam/internal/domain"
)

type ShotStore struct {
	db *sql.DB
}

func NewShotStore(db *sql.DB) *ShotStore {
	return &ShotStore{db: db}
}

const shotColumns = `id, device_key, kind, created_at,
	full_key, full_mime, full_width, full_height, full_size,
	thumb_key, thumb_mime, thumb_width, thumb_height`

// Create inserts shot and returns the stored record with its new ID.
// shot.CreatedAt is kept at millisecond precision.
func (s *ShotStore) Create(ctx context.Context, shot *domain.Shot) (*domain.Shot, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO shots (device_key, kind, created_at,
			full_key, full_mime, full_width, full_height, full_size,
			thumb_key, thumb_mime, thumb_width, thumb_height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, shot.DeviceKey, shot.Kind.String(), toMillis(shot.CreatedAt),
		shot.Full.StorageKey, shot.Full.MimeType, shot.Full.Width, shot.Full.Height, shot.FullSize,
		shot.Thumb.StorageKey, shot.Thumb.MimeType, shot.Thumb.Width, shot.Thumb.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create shot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ShotStore) GetByID(ctx context.Context, id int64) (*domain.Shot, error) {
	shot, err := scanShot(s.db.QueryRowContext(ctx, `
		SELECT `+shotColumns+` FROM shots WHERE id = ?
	`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shot: %w", err)
	}
	return shot, nil
}

// LatestByDevice returns the newest shot of the device, or nil if it has none.
func (s *ShotStore) LatestByDevice(ctx context.Context, deviceKey string) (*domain.Shot, error) {
	shot, err := scanShot(s.db.QueryRowContext(ctx, `
		SELECT `+shotColumns+` FROM shots WHERE device_key = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, deviceKey))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest shot: %w", err)
	}
	return shot, nil
}

// ListByDevice returns the device's shots newest first.
func (s *ShotStore) ListByDevice(ctx context.Context, deviceKey string) ([]*domain.Shot, error) {
	return s.list(ctx, `
		SELECT `+shotColumns+` FROM shots WHERE device_key = ?
		ORDER BY created_at DESC, id DESC
	`, deviceKey)
}

// List returns every shot in export order: oldest first, ties by ID.
func (s *ShotStore) List(ctx context.Context) ([]*domain.Shot, error) {
	return s.list(ctx, `
		SELECT `+shotColumns+` FROM shots ORDER BY created_at ASC, id ASC
	`)
}

func (s *ShotStore) list(ctx context.Context, query string, args ...any) ([]*domain.Shot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	defer rows.Close()

	var shots []*domain.Shot
	for rows.Next() {
		shot, err := scanShot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shot: %w", err)
		}
		shots = append(shots, shot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shots: %w", err)
	}
	return shots, nil
}

// KindsByDevice returns the distinct kinds photographed for the device.
func (s *ShotStore) KindsByDevice(ctx context.Context, deviceKey string) (domain.KindSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT kind FROM shots WHERE device_key = ?
	`, deviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list shot kinds: %w", err)
	}
	defer rows.Close()

	kinds := domain.NewKindSet()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan shot kind: %w", err)
		}
		k, err := domain.ParseKind(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse shot kind: %w", err)
		}
		kinds.Add(k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shot kinds: %w", err)
	}
	return kinds, nil
}

// KindsByAllDevices returns the distinct kinds of every device with shots,
// keyed by device key.
func (s *ShotStore) KindsByAllDevices(ctx context.Context) (map[string]domain.KindSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT device_key, kind FROM shots
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shot kinds: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.KindSet)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan shot kind: %w", err)
		}
		k, err := domain.ParseKind(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse shot kind: %w", err)
		}
		if out[key] == nil {
			out[key] = domain.NewKindSet()
		}
		out[key].Add(k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shot kinds: %w", err)
	}
	return out, nil
}

// CountByDevice returns the number of shots per device key.
func (s *ShotStore) CountByDevice(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_key, COUNT(*) FROM shots GROUP BY device_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count shots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan shot count: %w", err)
		}
		out[key] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shot counts: %w", err)
	}
	return out, nil
}

func (s *ShotStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shots WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shot: %w", err)
	}

	ok, err := affected(result)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return fmt.Errorf("shot %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByDevice removes the device's shots and returns them so the caller
// can clean up the blobs.
func (s *ShotStore) DeleteByDevice(ctx context.Context, deviceKey string) ([]*domain.Shot, error) {
	shots, err := s.ListByDevice(ctx, deviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get shots for device: %w", err)
	}
	if len(shots) == 0 {
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM shots WHERE device_key = ?
	`, deviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to delete shots for device: %w", err)
	}
	return shots, nil
}

func (s *ShotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shots`); err != nil {
		return fmt.Errorf("failed to clear shots: %w", err)
	}
	return nil
}

func scanShot(row rowScanner) (*domain.Shot, error) {
	shot := &domain.Shot{}
	var kind string
	var created int64
	err := row.Scan(&shot.ID, &shot.DeviceKey, &kind, &created,
		&shot.Full.StorageKey, &shot.Full.MimeType, &shot.Full.Width, &shot.Full.Height, &shot.FullSize,
		&shot.Thumb.StorageKey, &shot.Thumb.MimeType, &shot.Thumb.Width, &shot.Thumb.Height)
	if err != nil {
		return nil, err
	}
	k, err := domain.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	shot.Kind = k
	shot.CreatedAt = fromMillis(created)
	return shot, nil
}
