// Package quota reports how full the disk holding the survey data is. The
// figures are advisory.
package quota

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
)

type Level string

const (
	LevelOK     Level = "ok"
	LevelWarn   Level = "warn"
	LevelDanger Level = "danger"
)

const (
	warnRatio   = 0.85
	dangerRatio = 0.92
)

type Estimate struct {
	Path  string
	Used  uint64
	Total uint64
}

// Ratio is Used/Total, or 0 when the total is unknown.
func (e Estimate) Ratio() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Used) / float64(e.Total)
}

func (e Estimate) Level() Level {
	switch r := e.Ratio(); {
	case r >= dangerRatio:
		return LevelDanger
	case r >= warnRatio:
		return LevelWarn
	default:
		return LevelOK
	}
}

func (e Estimate) Free() uint64 {
	if e.Used > e.Total {
		return 0
	}
	return e.Total - e.Used
}

// String renders e as "12 GB / 256 GB (5%)".
func (e Estimate) String() string {
	return fmt.Sprintf("%s / %s (%.0f%%)", humanize.Bytes(e.Used), humanize.Bytes(e.Total), e.Ratio()*100)
}

type usageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

type Reporter struct {
	path  string
	usage usageFunc
}

// NewReporter reports on the filesystem containing path.
func NewReporter(path string) *Reporter {
	return &Reporter{path: path, usage: disk.UsageWithContext}
}

func (r *Reporter) Estimate(ctx context.Context) (Estimate, error) {
	st, err := r.usage(ctx, r.path)
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to read disk usage for %s: %w", r.path, err)
	}
	return Estimate{Path: r.path, Used: st.Used, Total: st.Total}, nil
}
