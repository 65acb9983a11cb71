package swapchain

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfDate means the surface no longer matches the chain. The frame
	// must be skipped and the chain rebuilt.
	ErrOutOfDate = errors.New("swap chain out of date")
	// ErrSuboptimal means presentation succeeded but the chain should be rebuilt.
	ErrSuboptimal = errors.New("swap chain suboptimal")
	// ErrFormatChanged is returned when a rebuilt chain's image or depth format
	// differs from the chain it replaced.
	ErrFormatChanged = errors.New("swap chain image or depth format has changed")
	// ErrUnsupportedSurface means the device offers no usable format or present mode.
	ErrUnsupportedSurface = errors.New("surface has no usable format or present mode")
	ErrFenceTimeout       = errors.New("timed out waiting for frame fence")
)

// NeedsRebuild reports whether err asks the caller to rebuild the chain.
func NeedsRebuild(err error) bool {
	return errors.Is(err, ErrOutOfDate) || errors.Is(err, ErrSuboptimal)
}
