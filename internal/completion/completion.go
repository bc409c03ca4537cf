// Package completion derives a device's checked flag from the kinds of its
// shots.
package completion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vbonduro/stampcam/internal/domain"
)

type shotKinds interface {
	KindsByDevice(ctx context.Context, deviceKey string) (domain.KindSet, error)
}

type deviceFlags interface {
	SetChecked(ctx context.Context, deviceKey string, checked bool) (bool, error)
}

// IsComplete reports whether kinds covers every mandatory kind. Free-form and
// ipaddress shots are ignored.
func IsComplete(kinds domain.KindSet) bool {
	for _, k := range domain.MandatoryKinds {
		if !kinds.Has(k) {
			return false
		}
	}
	return true
}

// Engine recomputes checked flags. Recomputes for one device key run one at a
// time; different keys proceed in parallel.
type Engine struct {
	shots   shotKinds
	devices deviceFlags
	locks   keyedMutex
	logger  *slog.Logger
}

func New(shots shotKinds, devices deviceFlags, logger *slog.Logger) *Engine {
	return &Engine{shots: shots, devices: devices, logger: logger}
}

// Recompute reloads the device's shot kinds and persists the derived flag.
// A device key with no device record is a no-op and reports false.
func (e *Engine) Recompute(ctx context.Context, deviceKey string) (bool, error) {
	unlock := e.locks.lock(deviceKey)
	defer unlock()

	kinds, err := e.shots.KindsByDevice(ctx, deviceKey)
	if err != nil {
		return false, domain.StoreError("load shot kinds", err)
	}

	checked := IsComplete(kinds)
	found, err := e.devices.SetChecked(ctx, deviceKey, checked)
	if err != nil {
		return false, domain.StoreError("set checked", err)
	}
	if !found {
		e.logger.Debug("recompute skipped, no device record", "device_key", deviceKey)
		return false, nil
	}

	e.logger.Debug("completion recomputed", "device_key", deviceKey, "checked", checked, "kinds", len(kinds))
	return checked, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its release func. Entries are
// dropped once no goroutine holds or waits on them.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
