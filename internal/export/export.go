// Package export packages every shot plus the device and progress tables
// into a single ZIP archive. Paths and CSV text depend only on stored data.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/vbonduro/stampcam/internal/domain"
	"github.com/vbonduro/stampcam/internal/identity"
	"github.com/vbonduro/stampcam/internal/photostore"
)

const (
	devicesFile  = "devices.csv"
	progressFile = "progress.csv"
	photosDir    = "photos"
	// unknownFolder collects shots whose device record no longer exists.
	unknownFolder = "unknown"
)

type deviceLister interface {
	List(ctx context.Context) ([]*domain.Device, error)
}

type shotLister interface {
	List(ctx context.Context) ([]*domain.Shot, error)
	KindsByAllDevices(ctx context.Context) (map[string]domain.KindSet, error)
}

type Options struct {
	CompressionLevel int
	StrictSanitize   bool
	Location         *time.Location
}

type Exporter struct {
	devices deviceLister
	shots   shotLister
	photos  photostore.PhotoStore
	opts    Options
	logger  *slog.Logger
}

func New(devices deviceLister, shots shotLister, photos photostore.PhotoStore, opts Options, logger *slog.Logger) *Exporter {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Exporter{devices: devices, shots: shots, photos: photos, opts: opts, logger: logger}
}

// Result summarizes a finished export.
type Result struct {
	Devices int
	Photos  int
	// Orphans counts shots exported under photos/unknown.
	Orphans int
	// MissingBlobs counts shots skipped because their image was gone.
	MissingBlobs int
	Bytes        int64
}

// Export writes the archive for project to w. It only reads the store.
func (e *Exporter) Export(ctx context.Context, w io.Writer, project string) (*Result, error) {
	devices, err := e.devices.List(ctx)
	if err != nil {
		return nil, domain.StoreError("list devices", err)
	}
	shots, err := e.shots.List(ctx)
	if err != nil {
		return nil, domain.StoreError("list shots", err)
	}
	kinds, err := e.shots.KindsByAllDevices(ctx)
	if err != nil {
		return nil, domain.StoreError("list shot kinds", err)
	}

	devicesCSV, err := DevicesCSV(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", devicesFile, err)
	}
	progressCSV, err := ProgressCSV(devices, kinds)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", progressFile, err)
	}

	// Entry times come from the data so identical stores give identical archives.
	var modified time.Time
	byKey := make(map[string]*domain.Device, len(devices))
	for _, d := range devices {
		byKey[d.Key] = d
		if d.UpdatedAt.After(modified) {
			modified = d.UpdatedAt
		}
	}
	for _, s := range shots {
		if s.CreatedAt.After(modified) {
			modified = s.CreatedAt
		}
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	level := e.opts.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	if err := writeEntry(zw, devicesFile, modified, devicesCSV); err != nil {
		return nil, err
	}
	if err := writeEntry(zw, progressFile, modified, progressCSV); err != nil {
		return nil, err
	}

	res := &Result{Devices: len(devices)}
	paths := newPathSet()
	for _, s := range shots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dev := byKey[s.DeviceKey]
		if dev == nil {
			res.Orphans++
		}
		name := paths.claim(e.PhotoPath(project, s, dev))

		ok, err := e.copyPhoto(ctx, zw, name, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.MissingBlobs++
			continue
		}
		res.Photos++
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	res.Bytes = cw.n

	e.logger.Info("export written",
		"devices", res.Devices,
		"photos", res.Photos,
		"orphans", res.Orphans,
		"missing_blobs", res.MissingBlobs,
		"bytes", res.Bytes,
	)
	return res, nil
}

// PhotoPath returns the archive path of shot. dev is nil for orphaned shots.
// Duplicate paths are not resolved here.
func (e *Exporter) PhotoPath(project string, shot *domain.Shot, dev *domain.Device) string {
	strict := e.opts.StrictSanitize

	var folder, label string
	if dev != nil {
		label = identity.MakeDisplayLabel(dev.RoomName, dev.Index)
		folder = SanitizeComponent(label, strict)
	} else {
		folder = unknownFolder
		label = unknownFolder
		if room, index, err := identity.ParseDeviceKey(shot.DeviceKey); err == nil {
			label = identity.MakeDisplayLabel(room, index)
		}
	}

	name := "[" + SanitizeComponent(project, strict) + "]" +
		"[" + SanitizeComponent(label, strict) + "]" +
		"[" + SanitizeComponent(shot.Kind.String(), strict) + "]" +
		"[" + FormatShotTime(shot.CreatedAt, e.opts.Location) + "]"
	return photosDir + "/" + folder + "/" + name + ".jpg"
}

// copyPhoto streams the full image of shot into the archive. It reports false
// when the blob no longer exists.
func (e *Exporter) copyPhoto(ctx context.Context, zw *zip.Writer, name string, shot *domain.Shot) (bool, error) {
	r, _, err := e.photos.Get(ctx, shot.Full.StorageKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.logger.Warn("shot image missing, skipped", "shot_id", shot.ID, "storage_key", shot.Full.StorageKey)
			return false, nil
		}
		return false, domain.StoreError("read shot image", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			e.logger.Error("failed to close resource", "label", "shot image", "error", cerr)
		}
	}()

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: shot.CreatedAt})
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return true, nil
}

func writeEntry(zw *zip.Writer, name string, modified time.Time, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// pathSet hands out unique archive paths, suffixing repeats with _2, _3...
// in claim order.
type pathSet struct {
	used map[string]bool
}

func newPathSet() *pathSet {
	return &pathSet{used: make(map[string]bool)}
}

func (p *pathSet) claim(path string) string {
	if !p.used[path] {
		p.used[path] = true
		return path
	}
	base := strings.TrimSuffix(path, ".jpg")
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d.jpg", base, n)
		if !p.used[candidate] {
			p.used[candidate] = true
			return candidate
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
