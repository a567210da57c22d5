package cachebuster

import "errors"

var (
	// ErrInvalidConfig is returned when the options passed to New or InitApp
	// are not a Config or a key-value mapping, or hold invalid values.
	ErrInvalidConfig = errors.New("cachebuster: invalid config")

	// ErrNoStaticFolder is returned when the host has no static folder set.
	ErrNoStaticFolder = errors.New("cachebuster: host has no static folder")

	// ErrStaticRootMissing is returned when the static root does not exist.
	ErrStaticRootMissing = errors.New("cachebuster: static root does not exist")

	// ErrStaticRootNotDir is returned when the static root is not a directory.
	ErrStaticRootNotDir = errors.New("cachebuster: static root is not a directory")
)
