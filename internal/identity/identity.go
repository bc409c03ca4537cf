// Package identity derives the stable identifiers that relate rooms, devices
// and shots. Everything here is pure.
package identity

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/vbonduro/stampcam/internal/domain"
)

const (
	// RoomPlaceholder replaces empty or whitespace-only room names.
	RoomPlaceholder = "(unset)"
	// Separator joins room and index in a device key. Room names containing it
	// would make keys ambiguous; ValidateRoomName rejects them.
	Separator = "::"

	// FreeIndex is the "no device number" sentinel used for free capture.
	FreeIndex = 0
	MaxIndex  = 199

	indexWidth = 3
)

// NormalizeRoomName trims surrounding whitespace and composes the name to NFC
// so visually identical names map to one key. Empty input maps to
// RoomPlaceholder.
func NormalizeRoomName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return RoomPlaceholder
	}
	return name
}

// ValidateRoomName rejects names that cannot round-trip through a device key.
func ValidateRoomName(name string) error {
	if strings.Contains(NormalizeRoomName(name), Separator) {
		return fmt.Errorf("%w: room name must not contain %q", domain.ErrInvalidInput, Separator)
	}
	return nil
}

// ValidateIndex accepts FreeIndex and 1..MaxIndex.
func ValidateIndex(n int) error {
	if n < FreeIndex || n > MaxIndex {
		return fmt.Errorf("%w: device index %d outside %d..%d", domain.ErrInvalidInput, n, FreeIndex, MaxIndex)
	}
	return nil
}

// FormatDeviceIndex zero-pads n to three digits. FreeIndex formats as "000";
// labels must special-case it.
func FormatDeviceIndex(n int) string {
	return fmt.Sprintf("%0*d", indexWidth, n)
}

// MakeDeviceKey builds the composite "room::NNN" key.
func MakeDeviceKey(room string, index int) string {
	return NormalizeRoomName(room) + Separator + FormatDeviceIndex(index)
}

// ParseDeviceKey splits a key produced by MakeDeviceKey. It splits on the last
// separator so the index is always recovered.
func ParseDeviceKey(key string) (room string, index int, err error) {
	i := strings.LastIndex(key, Separator)
	if i < 0 {
		return "", 0, fmt.Errorf("%w: malformed device key %q", domain.ErrInvalidInput, key)
	}
	index, err = strconv.Atoi(key[i+len(Separator):])
	if err != nil {
		return "", 0, fmt.Errorf("%w: malformed device index in key %q", domain.ErrInvalidInput, key)
	}
	if err := ValidateIndex(index); err != nil {
		return "", 0, err
	}
	return key[:i], index, nil
}

// MakeDisplayLabel renders a human readable label for a room/device pair.
func MakeDisplayLabel(room string, index int) string {
	room = NormalizeRoomName(room)
	if index == FreeIndex {
		return room + "_no-number"
	}
	return room + "_device" + FormatDeviceIndex(index)
}

// IsFreeKey reports whether key addresses the free-capture pseudo device.
func IsFreeKey(key string) bool {
	return strings.HasSuffix(key, Separator+FormatDeviceIndex(FreeIndex))
}
