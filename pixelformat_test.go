package glwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba8(depth, stencil uint8) PixelFormat {
	return PixelFormat{
		HardwareAccelerated: true,
		ColorBits:           24,
		AlphaBits:           8,
		DepthBits:           depth,
		StencilBits:         stencil,
		DoubleBuffer:        true,
	}
}

func TestNegotiatePicksClosestFit(t *testing.T) {
	reqs := DefaultPixelFormatRequirements()
	candidates := []formatCandidate[int]{
		{id: 1, format: rgba8(16, 0)},
		{id: 2, format: rgba8(32, 8)},
		{id: 3, format: rgba8(24, 8)},
		{id: 4, format: rgba8(24, 8)},
	}
	got, err := negotiatePixelFormat(reqs, candidates)
	require.NoError(t, err)
	assert.Equal(t, 3, got.id, "exact fit wins and ties keep driver order")
}

func TestNegotiateHardRequirements(t *testing.T) {
	soft := rgba8(24, 8)
	soft.HardwareAccelerated = false
	single := rgba8(24, 8)
	single.DoubleBuffer = false
	stereo := rgba8(24, 8)
	stereo.Stereoscopy = true

	tests := []struct {
		name   string
		reqs   func(*PixelFormatRequirements)
		format PixelFormat
		ok     bool
	}{
		{"software rejected", func(*PixelFormatRequirements) {}, soft, false},
		{"software allowed", func(r *PixelFormatRequirements) { r.HardwareAccelerated = false }, soft, true},
		{"single buffer rejected", func(*PixelFormatRequirements) {}, single, false},
		{"single buffer requested", func(r *PixelFormatRequirements) { r.Buffering = BufferingSingle }, single, true},
		{"double rejected for single", func(r *PixelFormatRequirements) { r.Buffering = BufferingSingle }, rgba8(24, 8), false},
		{"unrequested stereo rejected", func(*PixelFormatRequirements) {}, stereo, false},
		{"stereo requested", func(r *PixelFormatRequirements) { r.Stereoscopy = true }, stereo, true},
		{"too few samples", func(r *PixelFormatRequirements) { r.Multisampling = 4 }, rgba8(24, 8), false},
		{"srgb missing", func(r *PixelFormatRequirements) { r.SRGB = true }, rgba8(24, 8), false},
		{"shallow depth", func(*PixelFormatRequirements) {}, rgba8(16, 8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := DefaultPixelFormatRequirements()
			tt.reqs(&reqs)
			_, err := negotiatePixelFormat(reqs, []formatCandidate[int]{{id: 1, format: tt.format}})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNoAvailablePixelFormat)
			}
		})
	}
}

func TestNegotiatePreferences(t *testing.T) {
	reqs := DefaultPixelFormatRequirements()
	reqs.HardwareAccelerated = false
	reqs.Buffering = BufferingAny

	soft := rgba8(24, 8)
	soft.HardwareAccelerated = false
	single := rgba8(24, 8)
	single.DoubleBuffer = false
	msaa := rgba8(24, 8)
	msaa.Multisampling = 4

	got, err := negotiatePixelFormat(reqs, []formatCandidate[string]{
		{id: "soft", format: soft},
		{id: "single", format: single},
		{id: "msaa", format: msaa},
		{id: "deep", format: rgba8(32, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, "single", got.id)

	got, err = negotiatePixelFormat(reqs, []formatCandidate[string]{
		{id: "soft", format: soft},
		{id: "msaa", format: msaa},
		{id: "deep", format: rgba8(32, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, "deep", got.id)
}

func TestNegotiateEmpty(t *testing.T) {
	_, err := negotiatePixelFormat[int](DefaultPixelFormatRequirements(), nil)
	assert.ErrorIs(t, err, ErrNoAvailablePixelFormat)
}

func TestCursorTransitions(t *testing.T) {
	tests := []struct {
		from, to CursorState
		want     []cursorAction
	}{
		{CursorNormal, CursorNormal, nil},
		{CursorNormal, CursorHide, []cursorAction{actionHide}},
		{CursorNormal, CursorGrab, []cursorAction{actionHide, actionGrab}},
		{CursorHide, CursorNormal, []cursorAction{actionShow}},
		{CursorHide, CursorHide, nil},
		{CursorHide, CursorGrab, []cursorAction{actionGrab}},
		{CursorGrab, CursorNormal, []cursorAction{actionUngrab, actionShow}},
		{CursorGrab, CursorHide, []cursorAction{actionUngrab}},
		{CursorGrab, CursorGrab, nil},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, cursorTransition(tt.from, tt.to))
		})
	}
}

func TestAllCursorsNamed(t *testing.T) {
	all := AllCursors()
	assert.Len(t, all, int(cursorCount))
	seen := map[string]bool{}
	for _, c := range all {
		name := c.String()
		assert.NotContains(t, name, "MouseCursor(")
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Equal(t, "MouseCursor(99)", MouseCursor(99).String())

	// The grab shape and the grab capture mode are distinct types.
	assert.Equal(t, "grab", CursorGrabHand.String())
	assert.Equal(t, "grab", CursorGrab.String())
	assert.Contains(t, all, CursorGrabHand)
}
