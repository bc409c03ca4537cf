package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding means an image encode step produced no data.
	ErrEncoding = errors.New("image encoding failed")
	// ErrStore wraps any rejected read or write of the persistent store.
	ErrStore = errors.New("store failure")
	// ErrMissingSelection is returned before any store access when an action
	// needs an active room or device and none is selected.
	ErrMissingSelection = errors.New("no active selection")
	// ErrTooBlurry is returned by the capture focus gate.
	ErrTooBlurry = errors.New("capture rejected: image out of focus")
	ErrNotFound  = errors.New("not found")
	// ErrInvalidInput covers malformed names, indices and kinds.
	ErrInvalidInput = errors.New("invalid input")
)

// BlurError carries the focus score of a rejected capture.
type BlurError struct {
	Score     float64
	Threshold float64
}

func (e *BlurError) Error() string {
	return fmt.Sprintf("capture rejected: focus score %.1f below threshold %.1f", e.Score, e.Threshold)
}

func (e *BlurError) Unwrap() error { return ErrTooBlurry }

// StoreError tags err as a store failure while keeping it inspectable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
