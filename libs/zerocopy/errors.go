package zerocopy

import "errors"

var (
	// ErrInputTooShort is returned when the source is exhausted before a
	// value could be read in full.
	ErrInputTooShort = errors.New("input too short")

	// ErrInvalidValue is returned when the bytes are long enough but do not
	// hold a legal encoding (bad option tag, non-canonical var uint,
	// trailing bytes, ...).
	ErrInvalidValue = errors.New("invalid value")
)
