package bakeao

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-bakeao/pkg/asset"
)

var (
	// ErrInvalidArgument reports an argument outside its accepted range.
	ErrInvalidArgument = errors.New("bakeao: invalid argument")
	// ErrInvalidOperation reports a call that is not valid for the given object.
	ErrInvalidOperation = errors.New("bakeao: invalid operation")
	// ErrNoStore is returned by persistence calls when no store is configured.
	ErrNoStore = errors.New("bakeao: store not configured")
)

// LayerRangeError is returned for layer indices outside [0, LayerCount).
type LayerRangeError struct {
	Baked int
	Other int
}

func (e *LayerRangeError) Error() string {
	return fmt.Sprintf("bakeao: layer index should be in range [0;%d], got baked=%d other=%d", LayerCount-1, e.Baked, e.Other)
}

func (e *LayerRangeError) Unwrap() error {
	return ErrInvalidArgument
}

// MaterialError is returned when a material cannot be processed.
type MaterialError struct {
	Material asset.ID
	Reason   string
	Err      error
}

func (e *MaterialError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bakeao: material %s: %s", e.Material, e.Reason)
}

func (e *MaterialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
