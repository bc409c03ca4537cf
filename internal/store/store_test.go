package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stampcam/internal/db"
	"github.com/vbonduro/stampcam/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	cur := start.Add(-time.Second)
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func newShot(key string, kind domain.Kind, at time.Time) *domain.Shot {
	return &domain.Shot{
		DeviceKey: key,
		Kind:      kind,
		CreatedAt: at,
		Full:      domain.ImageRef{StorageKey: key + "_full.jpg", MimeType: "image/jpeg", Width: 1280, Height: 720},
		FullSize:  2048,
		Thumb:     domain.ImageRef{StorageKey: key + "_thumb.jpg", MimeType: "image/jpeg", Width: 320, Height: 180},
	}
}
