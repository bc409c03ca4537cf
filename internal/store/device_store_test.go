package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stampcam/internal/domain"
)

func TestDeviceStoreUpsertInserts(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))
	ctx := context.Background()

	d, err := store.Upsert(ctx, "Server Room::007", "Server Room", 7)
	require.NoError(t, err)
	assert.Equal(t, "Server Room::007", d.Key)
	assert.Equal(t, "Server Room", d.RoomName)
	assert.Equal(t, 7, d.Index)
	assert.False(t, d.Checked)
	assert.Empty(t, d.DeviceType)
}

func TestDeviceStoreUpsertRefreshesExisting(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))
	store.now = fixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := store.Upsert(ctx, "Lab::001", "Lab", 1)
	require.NoError(t, err)
	require.NoError(t, store.SetType(ctx, "Lab::001", "switch"))
	_, err = store.SetChecked(ctx, "Lab::001", true)
	require.NoError(t, err)

	second, err := store.Upsert(ctx, "Lab::001", "Lab", 1)
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "switch", second.DeviceType, "type survives re-registration")
	assert.True(t, second.Checked, "checked survives re-registration")

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeviceStoreGetByKeyNotFound(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))

	d, err := store.GetByKey(context.Background(), "Lab::001")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDeviceStoreListOrdering(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))
	ctx := context.Background()

	for _, tc := range []struct {
		key   string
		room  string
		index int
	}{
		{"B::002", "B", 2},
		{"A::010", "A", 10},
		{"B::001", "B", 1},
		{"A::003", "A", 3},
	} {
		_, err := store.Upsert(ctx, tc.key, tc.room, tc.index)
		require.NoError(t, err)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	var keys []string
	for _, d := range all {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"A::003", "A::010", "B::001", "B::002"}, keys)

	inB, err := store.ListByRoom(ctx, "B")
	require.NoError(t, err)
	require.Len(t, inB, 2)
	assert.Equal(t, 1, inB[0].Index)
	assert.Equal(t, 2, inB[1].Index)
}

func TestDeviceStoreSetTypeNotFound(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))

	err := store.SetType(context.Background(), "Lab::001", "router")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeviceStoreSetChecked(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))
	ctx := context.Background()

	ok, err := store.SetChecked(ctx, "Lab::001", true)
	require.NoError(t, err)
	assert.False(t, ok, "missing device is a no-op")

	_, err = store.Upsert(ctx, "Lab::001", "Lab", 1)
	require.NoError(t, err)

	ok, err = store.SetChecked(ctx, "Lab::001", true)
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := store.GetByKey(ctx, "Lab::001")
	require.NoError(t, err)
	assert.True(t, d.Checked)
}

func TestDeviceStoreDeleteByRoom(t *testing.T) {
	store := NewDeviceStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.Upsert(ctx, "Lab::001", "Lab", 1)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "Lab::002", "Lab", 2)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "Office::001", "Office", 1)
	require.NoError(t, err)

	n, err := store.DeleteByRoom(ctx, "Lab")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Office::001", all[0].Key)

	require.NoError(t, store.Clear(ctx))
	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
