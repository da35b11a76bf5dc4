package align

import "errors"

var (
	// ErrCoordinatesUnavailable means an image has no usable plate solution
	// for the requested pixel or sky position.
	ErrCoordinatesUnavailable = errors.New("image coordinates unavailable")
	// ErrTooManySamples is returned by AddSample once MaxSamples are held.
	ErrTooManySamples = errors.New("session already holds three samples")
	// ErrInsufficientSamples is returned by ComputeAxis without three samples.
	ErrInsufficientSamples = errors.New("axis needs exactly three samples")
	// ErrAxisUnknown is returned by operations that need a computed axis.
	ErrAxisUnknown = errors.New("mount axis has not been computed")
	// ErrNoProgressMatch means no knob offset reproduces the target pixel.
	ErrNoProgressMatch = errors.New("could not match target pixel")
	// ErrRefreshNoSolution means no knob adjustment explains a refresh image.
	ErrRefreshNoSolution = errors.New("could not estimate knob adjustment")
)
