package tilecanvas

import "errors"

// Sentinel errors for the tilecanvas package.
var (
	// ErrDestroyed is returned when an operation reaches a Manager after
	// Destroy.
	ErrDestroyed = errors.New("tilecanvas: manager destroyed")

	// ErrNoModel is returned by NewManager when no content model is given.
	ErrNoModel = errors.New("tilecanvas: content model is required")

	// ErrNoRenderer is returned by NewManager when no renderer is given.
	ErrNoRenderer = errors.New("tilecanvas: renderer is required")
)
