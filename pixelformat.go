package glwindow

import (
	"fmt"
)

// PixelFormat describes the framebuffer a context was created against. The
// fields always report what the driver granted.
type PixelFormat struct {
	HardwareAccelerated bool
	ColorBits           uint8
	AlphaBits           uint8
	DepthBits           uint8
	StencilBits         uint8
	Stereoscopy         bool
	DoubleBuffer        bool
	// Multisampling is the sample count, zero when the format has no
	// multisample buffer.
	Multisampling uint16
	SRGB          bool
}

func (f PixelFormat) String() string {
	return fmt.Sprintf("color=%d alpha=%d depth=%d stencil=%d double=%t stereo=%t samples=%d hw=%t srgb=%t",
		f.ColorBits, f.AlphaBits, f.DepthBits, f.StencilBits,
		f.DoubleBuffer, f.Stereoscopy, f.Multisampling, f.HardwareAccelerated, f.SRGB)
}

// satisfies reports whether f meets every hard requirement in reqs.
func (f PixelFormat) satisfies(reqs PixelFormatRequirements) bool {
	switch {
	case reqs.HardwareAccelerated && !f.HardwareAccelerated:
		return false
	case f.ColorBits < reqs.ColorBits,
		f.AlphaBits < reqs.AlphaBits,
		f.DepthBits < reqs.DepthBits,
		f.StencilBits < reqs.StencilBits:
		return false
	case reqs.Buffering == BufferingDouble && !f.DoubleBuffer,
		reqs.Buffering == BufferingSingle && f.DoubleBuffer:
		return false
	case reqs.Stereoscopy != f.Stereoscopy:
		return false
	case f.Multisampling < reqs.Multisampling:
		return false
	case reqs.SRGB && !f.SRGB:
		return false
	}
	return true
}

// cost measures how far f overshoots reqs. Lower is a closer fit.
func (f PixelFormat) cost(reqs PixelFormatRequirements) int {
	c := int(f.ColorBits-reqs.ColorBits) +
		int(f.AlphaBits-reqs.AlphaBits) +
		int(f.DepthBits-reqs.DepthBits) +
		int(f.StencilBits-reqs.StencilBits)
	// Extra samples cost far more than extra bits.
	c += 16 * int(f.Multisampling-reqs.Multisampling)
	if !f.HardwareAccelerated {
		c += 1000
	}
	if reqs.Buffering == BufferingAny && !f.DoubleBuffer {
		c += 8
	}
	return c
}

// formatCandidate pairs a driver format handle with its decoded description.
type formatCandidate[ID any] struct {
	id     ID
	format PixelFormat
}

// negotiatePixelFormat picks the closest candidate meeting the hard
// requirements. Ties keep the driver's ordering.
func negotiatePixelFormat[ID any](reqs PixelFormatRequirements, candidates []formatCandidate[ID]) (formatCandidate[ID], error) {
	best := -1
	bestCost := 0
	for i, c := range candidates {
		if !c.format.satisfies(reqs) {
			continue
		}
		cost := c.format.cost(reqs)
		if best < 0 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	if best < 0 {
		var zero formatCandidate[ID]
		return zero, fmt.Errorf("%w: %d candidates, none meet the requirements", ErrNoAvailablePixelFormat, len(candidates))
	}
	return candidates[best], nil
}
