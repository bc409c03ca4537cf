package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stampcam/internal/domain"
)

func TestNormalizeRoomName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Server Room", want: "Server Room"},
		{name: "trimmed", input: "  Server Room\t\n", want: "Server Room"},
		{name: "empty", input: "", want: RoomPlaceholder},
		{name: "whitespace only", input: "   \t ", want: RoomPlaceholder},
		{name: "decomposed accent", input: "Cafe\u0301", want: "Caf\u00e9"},
		{name: "placeholder itself", input: RoomPlaceholder, want: RoomPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRoomName(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeRoomName(got), "normalization must be idempotent")
		})
	}
}

func TestFormatDeviceIndex(t *testing.T) {
	assert.Equal(t, "000", FormatDeviceIndex(0))
	assert.Equal(t, "007", FormatDeviceIndex(7))
	assert.Equal(t, "042", FormatDeviceIndex(42))
	assert.Equal(t, "199", FormatDeviceIndex(199))
}

func TestMakeDeviceKey(t *testing.T) {
	assert.Equal(t, "Server Room::007", MakeDeviceKey(" Server Room ", 7))
	assert.Equal(t, RoomPlaceholder+"::000", MakeDeviceKey("", 0))
	assert.NotEqual(t, MakeDeviceKey("A", 1), MakeDeviceKey("A", 10))
}

func TestParseDeviceKey(t *testing.T) {
	room, idx, err := ParseDeviceKey("Server Room::007")
	require.NoError(t, err)
	assert.Equal(t, "Server Room", room)
	assert.Equal(t, 7, idx)

	_, _, err = ParseDeviceKey("no separator")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = ParseDeviceKey("Room::abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = ParseDeviceKey("Room::250")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateRoomNameRejectsSeparator(t *testing.T) {
	assert.NoError(t, ValidateRoomName("Rack: A"))
	assert.ErrorIs(t, ValidateRoomName("Floor::2"), domain.ErrInvalidInput)
}

func TestValidateIndex(t *testing.T) {
	assert.NoError(t, ValidateIndex(0))
	assert.NoError(t, ValidateIndex(1))
	assert.NoError(t, ValidateIndex(199))
	assert.ErrorIs(t, ValidateIndex(-1), domain.ErrInvalidInput)
	assert.ErrorIs(t, ValidateIndex(200), domain.ErrInvalidInput)
}

func TestMakeDisplayLabel(t *testing.T) {
	assert.Equal(t, "Server Room_device007", MakeDisplayLabel("Server Room", 7))
	assert.Equal(t, "Server Room_no-number", MakeDisplayLabel("Server Room", 0))
}

func TestIsFreeKey(t *testing.T) {
	assert.True(t, IsFreeKey(MakeDeviceKey("A", 0)))
	assert.False(t, IsFreeKey(MakeDeviceKey("A", 100)))
}
