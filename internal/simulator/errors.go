package simulator

import "errors"

var (
	// ErrInsufficientData is returned when fewer than two usable real frames
	// remain after filtering; no timeline is built and no session starts.
	ErrInsufficientData = errors.New("insufficient data: at least two real frames are required")

	// ErrEmptyFrame is returned by Interpolate when an endpoint has no samples.
	ErrEmptyFrame = errors.New("endpoint frame has no entity samples")

	// ErrFrameOrder is returned by Interpolate when the endpoints are not in
	// ascending frame id order.
	ErrFrameOrder = errors.New("start frame must precede end frame")

	// ErrInvalidSample is returned when a sample cannot be placed on the pitch.
	ErrInvalidSample = errors.New("invalid entity sample")

	// ErrNotReady is returned when ticking a driver with no timeline loaded.
	ErrNotReady = errors.New("playback driver has no timeline")

	// ErrMatchNotFound is returned by data sources for unknown matches.
	ErrMatchNotFound = errors.New("match not found")

	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidOptions is returned when session options are out of range.
	ErrInvalidOptions = errors.New("invalid session options")
)
