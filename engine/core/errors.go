package core

import "errors"

// Error kinds shared by the fisheye pipeline. Wrap with fmt.Errorf("...: %w")
// and match with errors.Is.
var (
	// ErrInvalidConfiguration rejects non-positive resolution, fps, duration and similar
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPlatformUnsupported means the frame sink could not be opened
	ErrPlatformUnsupported = errors.New("platform unsupported")

	// ErrRenderFailure wraps errors reported by the renderer
	ErrRenderFailure = errors.New("render failure")

	// ErrAssetLoad wraps background/model loading failures
	ErrAssetLoad = errors.New("asset load failure")
)
