package domain

import "time"

// Room is a registered room name. Devices reference rooms by name.
type Room struct {
	Name      string
	CreatedAt time.Time
}

// Device is one physical item awaiting photographic documentation.
// Checked is derived from the device's shots and is only written by the
// completion engine.
type Device struct {
	Key        string
	RoomName   string
	Index      int
	DeviceType string
	Checked    bool
	UpdatedAt  time.Time
}

// ImageRef points at an encoded image held in the photo store.
type ImageRef struct {
	StorageKey string
	MimeType   string
	Width      int
	Height     int
}

type Shot struct {
	ID        int64
	DeviceKey string
	Kind      Kind
	CreatedAt time.Time
	Full      ImageRef
	FullSize  int64
	Thumb     ImageRef
}

// AppMeta is the process-wide survey state. Exactly one exists per store.
type AppMeta struct {
	ProjectName        string
	RoomDraft          string
	RegisteredRooms    []string
	ActiveRoom         string
	ActiveDeviceKey    string
	LastShotID         *int64
	ShowIncompleteOnly bool
}

// DefaultMeta returns the state written on first run.
func DefaultMeta() *AppMeta {
	return &AppMeta{RegisteredRooms: []string{}}
}

// DeviceProgress is a device together with the kinds photographed so far.
type DeviceProgress struct {
	*Device
	Kinds KindSet
	Shots int
}

// Missing returns the mandatory kinds not yet photographed, in checklist order.
func (p *DeviceProgress) Missing() []Kind {
	var out []Kind
	for _, k := range MandatoryKinds {
		if !p.Kinds.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
