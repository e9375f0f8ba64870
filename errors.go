package pyrite

import (
	"errors"
	"fmt"
	"io"

	"github.com/pyrite-engine/pyrite/snapshot"
	"github.com/pyrite-engine/pyrite/visit"
	"github.com/pyrite-engine/pyrite/wire"
)

var (
	// ErrCorrupt is returned when stored bytes cannot be a valid snapshot:
	// bad magic, truncation, checksum failure, or malformed structure.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrIncompatible is returned when a snapshot was written by a format
	// version this build cannot read.
	ErrIncompatible = errors.New("incompatible snapshot")
)

// translateError unifies lower-layer failures under the package sentinels
// so callers can branch with errors.Is without importing every layer.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, snapshot.ErrInvalidVersion) {
		return fmt.Errorf("%w: %w", ErrIncompatible, err)
	}
	if errors.Is(err, snapshot.ErrUnknownCompression) {
		return fmt.Errorf("%w: %w", ErrIncompatible, err)
	}

	if errors.Is(err, snapshot.ErrInvalidMagic) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if snapshot.IsChecksumMismatch(err) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, wire.ErrMalformedStream) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, visit.ErrCountMismatch) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return err
}
