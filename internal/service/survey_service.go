package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/stampcam/internal/capture"
	"github.com/vbonduro/stampcam/internal/completion"
	"github.com/vbonduro/stampcam/internal/config"
	"github.com/vbonduro/stampcam/internal/domain"
	"github.com/vbonduro/stampcam/internal/export"
	"github.com/vbonduro/stampcam/internal/identity"
	"github.com/vbonduro/stampcam/internal/metrics"
	"github.com/vbonduro/stampcam/internal/photostore"
	"github.com/vbonduro/stampcam/internal/quota"
)

// roomRepository is the subset of store.RoomStore that SurveyService requires.
type roomRepository interface {
	Create(ctx context.Context, name string) (*domain.Room, error)
	Get(ctx context.Context, name string) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}

// deviceRepository is the subset of store.DeviceStore that SurveyService requires.
type deviceRepository interface {
	Upsert(ctx context.Context, key, room string, index int) (*domain.Device, error)
	GetByKey(ctx context.Context, key string) (*domain.Device, error)
	ListByRoom(ctx context.Context, room string) ([]*domain.Device, error)
	List(ctx context.Context) ([]*domain.Device, error)
	SetType(ctx context.Context, key, deviceType string) error
	SetChecked(ctx context.Context, key string, checked bool) (bool, error)
	DeleteByRoom(ctx context.Context, room string) (int64, error)
	Clear(ctx context.Context) error
}

// shotRepository is the subset of store.ShotStore that SurveyService requires.
type shotRepository interface {
	Create(ctx context.Context, shot *domain.Shot) (*domain.Shot, error)
	GetByID(ctx context.Context, id int64) (*domain.Shot, error)
	ListByDevice(ctx context.Context, deviceKey string) ([]*domain.Shot, error)
	LatestByDevice(ctx context.Context, deviceKey string) (*domain.Shot, error)
	KindsByDevice(ctx context.Context, deviceKey string) (domain.KindSet, error)
	CountByDevice(ctx context.Context) (map[string]int, error)
	Delete(ctx context.Context, id int64) error
	DeleteByDevice(ctx context.Context, deviceKey string) ([]*domain.Shot, error)
	Clear(ctx context.Context) error
}

// metaRepository is the subset of store.MetaStore that SurveyService requires.
type metaRepository interface {
	Get(ctx context.Context) (*domain.AppMeta, error)
	Put(ctx context.Context, m *domain.AppMeta) error
	Clear(ctx context.Context) error
}

type archiver interface {
	Export(ctx context.Context, w io.Writer, project string) (*export.Result, error)
}

type storageReporter interface {
	Estimate(ctx context.Context) (quota.Estimate, error)
}

// Deps wires SurveyService to its collaborators.
type Deps struct {
	Rooms    roomRepository
	Devices  deviceRepository
	Shots    shotRepository
	Meta     metaRepository
	Photos   photostore.PhotoStore
	Exporter archiver
	Quota    storageReporter
	Metrics  *metrics.Metrics
	Capture  config.Capture
	Logger   *slog.Logger
}

// SurveyService owns the survey state (AppMeta) and runs every operator
// action against the store. The in-memory AppMeta is authoritative for this
// process; it is written through to the store on every change.
type SurveyService struct {
	rooms     roomRepository
	devices   deviceRepository
	shots     shotRepository
	metaStore metaRepository
	photos    photostore.PhotoStore
	exporter  archiver
	quota     storageReporter
	metrics   *metrics.Metrics
	engine    *completion.Engine
	pipeline  *capture.Pipeline
	logger    *slog.Logger

	mu   sync.Mutex
	meta *domain.AppMeta
}

// NewSurveyService builds the service and loads the persisted state.
func NewSurveyService(ctx context.Context, d Deps) (*SurveyService, error) {
	s := &SurveyService{
		rooms:     d.Rooms,
		devices:   d.Devices,
		shots:     d.Shots,
		metaStore: d.Meta,
		photos:    d.Photos,
		exporter:  d.Exporter,
		quota:     d.Quota,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	s.engine = completion.New(d.Shots, d.Devices, d.Logger)
	s.pipeline = capture.NewPipeline(d.Photos, d.Shots, lastShotRecorder{s}, s.engine, d.Capture, d.Logger)

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SurveyService) load(ctx context.Context) error {
	m, err := s.metaStore.Get(ctx)
	if err != nil {
		return domain.StoreError("load meta", err)
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return domain.StoreError("list rooms", err)
	}
	m.RegisteredRooms = roomNames(rooms)

	s.mu.Lock()
	s.meta = m
	s.mu.Unlock()
	return nil
}

// Meta returns a copy of the current state.
func (s *SurveyService) Meta() *domain.AppMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMeta(s.meta)
}

func (s *SurveyService) SetProject(ctx context.Context, name string) (*domain.AppMeta, error) {
	return s.updateMeta(ctx, func(m *domain.AppMeta) error {
		m.ProjectName = strings.TrimSpace(name)
		return nil
	})
}

func (s *SurveyService) SetRoomDraft(ctx context.Context, draft string) (*domain.AppMeta, error) {
	return s.updateMeta(ctx, func(m *domain.AppMeta) error {
		m.RoomDraft = draft
		return nil
	})
}

func (s *SurveyService) SetShowIncompleteOnly(ctx context.Context, on bool) (*domain.AppMeta, error) {
	return s.updateMeta(ctx, func(m *domain.AppMeta) error {
		m.ShowIncompleteOnly = on
		return nil
	})
}

func (s *SurveyService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, domain.StoreError("list rooms", err)
	}
	return rooms, nil
}

// RegisterRoom adds the room (registering an existing name is not an error),
// makes it active and clears the room draft.
func (s *SurveyService) RegisterRoom(ctx context.Context, name string) (*domain.Room, error) {
	if err := identity.ValidateRoomName(name); err != nil {
		return nil, err
	}
	name = identity.NormalizeRoomName(name)

	var room *domain.Room
	_, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
		if err := s.ensureRoom(ctx, m, name); err != nil {
			return err
		}
		r, err := s.rooms.Get(ctx, name)
		if err != nil {
			return domain.StoreError("get room", err)
		}
		room = r
		activateRoom(m, name)
		m.RoomDraft = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("room registered", "room", name)
	return room, nil
}

func (s *SurveyService) SelectRoom(ctx context.Context, name string) (*domain.AppMeta, error) {
	name = identity.NormalizeRoomName(name)
	return s.updateMeta(ctx, func(m *domain.AppMeta) error {
		if !slices.Contains(m.RegisteredRooms, name) {
			return fmt.Errorf("room %q: %w", name, domain.ErrNotFound)
		}
		activateRoom(m, name)
		return nil
	})
}

// DeleteRoom removes the room with its devices, their shots and the shot
// images. Selections that pointed into the room are cleared.
func (s *SurveyService) DeleteRoom(ctx context.Context, name string) error {
	name = identity.NormalizeRoomName(name)

	devices, err := s.devices.ListByRoom(ctx, name)
	if err != nil {
		return domain.StoreError("list devices", err)
	}
	s.mu.Lock()
	registered := slices.Contains(s.meta.RegisteredRooms, name)
	s.mu.Unlock()
	if !registered && len(devices) == 0 {
		return fmt.Errorf("room %q: %w", name, domain.ErrNotFound)
	}

	keys := make([]string, 0, len(devices)+1)
	for _, d := range devices {
		keys = append(keys, d.Key)
	}
	if !slices.ContainsFunc(keys, identity.IsFreeKey) {
		keys = append(keys, identity.MakeDeviceKey(name, identity.FreeIndex))
	}

	var removed []*domain.Shot
	for _, key := range keys {
		shots, err := s.shots.DeleteByDevice(ctx, key)
		if err != nil {
			return domain.StoreError("delete shots", err)
		}
		removed = append(removed, shots...)
	}
	if _, err := s.devices.DeleteByRoom(ctx, name); err != nil {
		return domain.StoreError("delete devices", err)
	}
	if err := s.rooms.Delete(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.StoreError("delete room", err)
	}

	removedIDs := make(map[int64]bool, len(removed))
	for _, shot := range removed {
		removedIDs[shot.ID] = true
	}
	if _, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
		m.RegisteredRooms = slices.DeleteFunc(m.RegisteredRooms, func(r string) bool { return r == name })
		if m.ActiveRoom == name {
			m.ActiveRoom = ""
		}
		if slices.Contains(keys, m.ActiveDeviceKey) {
			m.ActiveDeviceKey = ""
		}
		if m.LastShotID != nil && removedIDs[*m.LastShotID] {
			m.LastShotID = nil
		}
		return nil
	}); err != nil {
		return err
	}

	s.removeBlobs(ctx, removed...)
	s.refreshGauges(ctx)
	s.logger.Info("room deleted", "room", name, "devices", len(devices), "shots", len(removed))
	return nil
}

// AddDevice registers device index in room, or in the active room when room
// is empty, and makes it the active device.
func (s *SurveyService) AddDevice(ctx context.Context, room string, index int) (*domain.Device, error) {
	if strings.TrimSpace(room) == "" {
		s.mu.Lock()
		room = s.meta.ActiveRoom
		s.mu.Unlock()
		if room == "" {
			return nil, fmt.Errorf("%w: select a room before adding devices", domain.ErrMissingSelection)
		}
	}
	if err := identity.ValidateRoomName(room); err != nil {
		return nil, err
	}
	if err := identity.ValidateIndex(index); err != nil {
		return nil, err
	}
	room = identity.NormalizeRoomName(room)
	key := identity.MakeDeviceKey(room, index)

	dev, err := s.devices.Upsert(ctx, key, room, index)
	if err != nil {
		return nil, domain.StoreError("upsert device", err)
	}
	if _, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
		if err := s.ensureRoom(ctx, m, room); err != nil {
			return err
		}
		m.ActiveRoom = room
		m.ActiveDeviceKey = key
		return nil
	}); err != nil {
		return nil, err
	}

	s.refreshGauges(ctx)
	s.logger.Info("device registered", "device_key", key)
	return dev, nil
}

func (s *SurveyService) SelectDevice(ctx context.Context, key string) (*domain.Device, error) {
	dev, err := s.getDevice(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
		m.ActiveRoom = dev.RoomName
		m.ActiveDeviceKey = dev.Key
		return nil
	}); err != nil {
		return nil, err
	}
	return dev, nil
}

func (s *SurveyService) SetDeviceType(ctx context.Context, key, deviceType string) (*domain.Device, error) {
	if err := s.devices.SetType(ctx, key, strings.TrimSpace(deviceType)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.StoreError("set device type", err)
	}
	return s.getDevice(ctx, key)
}

// ListDevices returns the devices of room (or the active room) with their
// progress. Checked devices are left out while the only-incomplete filter is on.
func (s *SurveyService) ListDevices(ctx context.Context, room string) ([]*domain.DeviceProgress, error) {
	s.mu.Lock()
	if strings.TrimSpace(room) == "" {
		room = s.meta.ActiveRoom
	}
	incompleteOnly := s.meta.ShowIncompleteOnly
	s.mu.Unlock()
	if room == "" {
		return nil, fmt.Errorf("%w: no room selected", domain.ErrMissingSelection)
	}
	room = identity.NormalizeRoomName(room)

	devices, err := s.devices.ListByRoom(ctx, room)
	if err != nil {
		return nil, domain.StoreError("list devices", err)
	}
	counts, err := s.shots.CountByDevice(ctx)
	if err != nil {
		return nil, domain.StoreError("count shots", err)
	}

	out := make([]*domain.DeviceProgress, 0, len(devices))
	for _, d := range devices {
		if incompleteOnly && d.Checked {
			continue
		}
		kinds, err := s.shots.KindsByDevice(ctx, d.Key)
		if err != nil {
			return nil, domain.StoreError("list shot kinds", err)
		}
		out = append(out, &domain.DeviceProgress{Device: d, Kinds: kinds, Shots: counts[d.Key]})
	}
	return out, nil
}

func (s *SurveyService) DeviceProgress(ctx context.Context, key string) (*domain.DeviceProgress, error) {
	dev, err := s.getDevice(ctx, key)
	if err != nil {
		return nil, err
	}
	shots, err := s.shots.ListByDevice(ctx, key)
	if err != nil {
		return nil, domain.StoreError("list shots", err)
	}
	kinds := domain.NewKindSet()
	for _, shot := range shots {
		kinds.Add(shot.Kind)
	}
	return &domain.DeviceProgress{Device: dev, Kinds: kinds, Shots: len(shots)}, nil
}

// ListShots returns the shots of key (or the active device), newest first.
func (s *SurveyService) ListShots(ctx context.Context, key string) ([]*domain.Shot, error) {
	if key == "" {
		s.mu.Lock()
		key = s.meta.ActiveDeviceKey
		s.mu.Unlock()
		if key == "" {
			return nil, fmt.Errorf("%w: no device selected", domain.ErrMissingSelection)
		}
	}
	shots, err := s.shots.ListByDevice(ctx, key)
	if err != nil {
		return nil, domain.StoreError("list shots", err)
	}
	return shots, nil
}

// DecodeFrame reads an uploaded JPEG, PNG or WebP frame within the
// configured size limit.
func (s *SurveyService) DecodeFrame(r io.Reader) (capture.FrameSource, error) {
	return s.pipeline.Decode(r)
}

// Shoot captures src as a shot of kind for the active device. The device
// record is created if the active key has none.
func (s *SurveyService) Shoot(ctx context.Context, src capture.FrameSource, kind domain.Kind) (*capture.Result, error) {
	s.mu.Lock()
	key := s.meta.ActiveDeviceKey
	s.mu.Unlock()
	if key == "" {
		return nil, fmt.Errorf("%w: select a device before shooting", domain.ErrMissingSelection)
	}
	if kind.IsZero() {
		return nil, fmt.Errorf("%w: shot kind required", domain.ErrInvalidInput)
	}

	if err := s.ensureDevice(ctx, key); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.pipeline.Capture(ctx, src, key, kind)
	s.metrics.CaptureDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrTooBlurry) {
			status = "blurry"
		}
		s.metrics.CapturesTotal.WithLabelValues(string(kind.Code()), status).Inc()
		return nil, err
	}
	s.metrics.CapturesTotal.WithLabelValues(string(kind.Code()), "success").Inc()
	s.refreshGauges(ctx)
	return res, nil
}

// DeleteShot removes the shot, recomputes its device and moves the most-recent
// pointer to the device's next newest shot when it pointed at this one.
func (s *SurveyService) DeleteShot(ctx context.Context, id int64) error {
	shot, err := s.shots.GetByID(ctx, id)
	if err != nil {
		return domain.StoreError("get shot", err)
	}
	if shot == nil {
		return fmt.Errorf("shot %d: %w", id, domain.ErrNotFound)
	}

	if err := s.shots.Delete(ctx, id); err != nil {
		return domain.StoreError("delete shot", err)
	}
	if _, err := s.engine.Recompute(ctx, shot.DeviceKey); err != nil {
		return err
	}

	s.mu.Lock()
	pointed := s.meta.LastShotID != nil && *s.meta.LastShotID == id
	s.mu.Unlock()
	if pointed {
		next, err := s.shots.LatestByDevice(ctx, shot.DeviceKey)
		if err != nil {
			return domain.StoreError("get latest shot", err)
		}
		var nextID *int64
		if next != nil {
			nextID = &next.ID
		}
		if _, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
			m.LastShotID = nextID
			return nil
		}); err != nil {
			return err
		}
	}

	s.removeBlobs(ctx, shot)
	s.metrics.ShotsDeleted.Inc()
	s.refreshGauges(ctx)
	s.logger.Info("shot deleted", "shot_id", id, "device_key", shot.DeviceKey)
	return nil
}

// ShotImage opens the full image, or the thumbnail when thumb is set.
func (s *SurveyService) ShotImage(ctx context.Context, id int64, thumb bool) (io.ReadCloser, string, error) {
	shot, err := s.shots.GetByID(ctx, id)
	if err != nil {
		return nil, "", domain.StoreError("get shot", err)
	}
	if shot == nil {
		return nil, "", fmt.Errorf("shot %d: %w", id, domain.ErrNotFound)
	}
	ref := shot.Full
	if thumb {
		ref = shot.Thumb
	}
	r, mime, err := s.photos.Get(ctx, ref.StorageKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", err
		}
		return nil, "", domain.StoreError("read image", err)
	}
	return r, mime, nil
}

// Export writes the archive of every room to w. At least one room must be
// registered.
func (s *SurveyService) Export(ctx context.Context, w io.Writer) (*export.Result, error) {
	s.mu.Lock()
	rooms := len(s.meta.RegisteredRooms)
	project := s.meta.ProjectName
	s.mu.Unlock()
	if rooms == 0 {
		return nil, fmt.Errorf("%w: register a room before exporting", domain.ErrMissingSelection)
	}

	start := time.Now()
	res, err := s.exporter.Export(ctx, w, project)
	s.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ExportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.ExportsTotal.WithLabelValues("success").Inc()
	s.metrics.ExportBytes.Observe(float64(res.Bytes))
	return res, nil
}

// ArchiveName is the download name for an export started at now.
func (s *SurveyService) ArchiveName(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.ArchiveName(s.meta.ProjectName, now)
}

// Wipe deletes all shots, devices, rooms, state and images.
func (s *SurveyService) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.shots.Clear(ctx); err != nil {
		return domain.StoreError("clear shots", err)
	}
	if err := s.devices.Clear(ctx); err != nil {
		return domain.StoreError("clear devices", err)
	}
	if err := s.rooms.Clear(ctx); err != nil {
		return domain.StoreError("clear rooms", err)
	}
	if err := s.metaStore.Clear(ctx); err != nil {
		return domain.StoreError("clear meta", err)
	}
	if err := s.photos.Purge(ctx); err != nil {
		return domain.StoreError("purge images", err)
	}

	fresh := domain.DefaultMeta()
	if err := s.metaStore.Put(ctx, fresh); err != nil {
		return domain.StoreError("save meta", err)
	}
	s.meta = fresh
	s.metrics.DevicesTotal.Set(0)
	s.metrics.DevicesChecked.Set(0)
	s.logger.Info("all survey data wiped")
	return nil
}

// StorageStatus reports disk usage of the data directory.
func (s *SurveyService) StorageStatus(ctx context.Context) (quota.Estimate, error) {
	return s.quota.Estimate(ctx)
}

// Stats summarizes survey progress.
type Stats struct {
	Rooms   int
	Devices int
	Checked int
	Shots   int
}

func (s *SurveyService) Stats(ctx context.Context) (*Stats, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, domain.StoreError("list devices", err)
	}
	counts, err := s.shots.CountByDevice(ctx)
	if err != nil {
		return nil, domain.StoreError("count shots", err)
	}

	st := &Stats{Devices: len(devices)}
	s.mu.Lock()
	st.Rooms = len(s.meta.RegisteredRooms)
	s.mu.Unlock()
	for _, d := range devices {
		if d.Checked {
			st.Checked++
		}
	}
	for _, n := range counts {
		st.Shots += n
	}
	s.metrics.DevicesTotal.Set(float64(st.Devices))
	s.metrics.DevicesChecked.Set(float64(st.Checked))
	return st, nil
}

func (s *SurveyService) getDevice(ctx context.Context, key string) (*domain.Device, error) {
	dev, err := s.devices.GetByKey(ctx, key)
	if err != nil {
		return nil, domain.StoreError("get device", err)
	}
	if dev == nil {
		return nil, fmt.Errorf("device %q: %w", key, domain.ErrNotFound)
	}
	return dev, nil
}

func (s *SurveyService) ensureDevice(ctx context.Context, key string) error {
	dev, err := s.devices.GetByKey(ctx, key)
	if err != nil {
		return domain.StoreError("get device", err)
	}
	if dev != nil {
		return nil
	}
	room, index, err := identity.ParseDeviceKey(key)
	if err != nil {
		return err
	}
	if _, err := s.devices.Upsert(ctx, key, room, index); err != nil {
		return domain.StoreError("upsert device", err)
	}
	if _, err := s.updateMeta(ctx, func(m *domain.AppMeta) error {
		return s.ensureRoom(ctx, m, room)
	}); err != nil {
		return err
	}
	s.logger.Info("device created on first shot", "device_key", key)
	return nil
}

// ensureRoom registers room in the store and in m. Devices may only live in
// registered rooms.
func (s *SurveyService) ensureRoom(ctx context.Context, m *domain.AppMeta, room string) error {
	if slices.Contains(m.RegisteredRooms, room) {
		return nil
	}
	if _, err := s.rooms.Create(ctx, room); err != nil {
		return domain.StoreError("create room", err)
	}
	m.RegisteredRooms = append(m.RegisteredRooms, room)
	return nil
}

// updateMeta applies fn to a copy of the state and persists it. The in-memory
// state only changes when both succeed.
func (s *SurveyService) updateMeta(ctx context.Context, fn func(m *domain.AppMeta) error) (*domain.AppMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneMeta(s.meta)
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.metaStore.Put(ctx, next); err != nil {
		return nil, domain.StoreError("save meta", err)
	}
	s.meta = next
	return cloneMeta(next), nil
}

// removeBlobs deletes the image files of shots whose records are gone.
func (s *SurveyService) removeBlobs(ctx context.Context, shots ...*domain.Shot) {
	for _, shot := range shots {
		for _, key := range []string{shot.Full.StorageKey, shot.Thumb.StorageKey} {
			if err := s.photos.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error("failed to delete shot image", "shot_id", shot.ID, "storage_key", key, "error", err)
			}
		}
	}
}

func (s *SurveyService) refreshGauges(ctx context.Context) {
	if _, err := s.Stats(ctx); err != nil {
		s.logger.Warn("failed to refresh progress gauges", "error", err)
	}
}

// lastShotRecorder lets the capture pipeline move the most-recent pointer
// through the service so the in-memory state stays current.
type lastShotRecorder struct {
	s *SurveyService
}

func (r lastShotRecorder) SetLastShot(ctx context.Context, id *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := cloneMeta(r.s.meta)
	next.LastShotID = id
	if err := r.s.metaStore.Put(ctx, next); err != nil {
		return err
	}
	r.s.meta = next
	return nil
}

// activateRoom makes room active and drops a device selection from another room.
func activateRoom(m *domain.AppMeta, room string) {
	m.ActiveRoom = room
	if m.ActiveDeviceKey == "" {
		return
	}
	if r, _, err := identity.ParseDeviceKey(m.ActiveDeviceKey); err != nil || r != room {
		m.ActiveDeviceKey = ""
	}
}

func cloneMeta(m *domain.AppMeta) *domain.AppMeta {
	cp := *m
	cp.RegisteredRooms = slices.Clone(m.RegisteredRooms)
	if cp.RegisteredRooms == nil {
		cp.RegisteredRooms = []string{}
	}
	if m.LastShotID != nil {
		id := *m.LastShotID
		cp.LastShotID = &id
	}
	return &cp
}

func roomNames(rooms []*domain.Room) []string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.Name)
	}
	return names
}
