package glwindow

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestParseXftDPI(t *testing.T) {
	assert.Equal(t, 144.0, parseXftDPI("Xft.antialias:\t1\nXft.dpi:\t144\nXft.hinting:\t1\n"))
	assert.Equal(t, 96.0, parseXftDPI("Xft.dpi: 96"))
	assert.Zero(t, parseXftDPI("Xft.dpi:\tlots\n"))
	assert.Zero(t, parseXftDPI("Xcursor.size:\t24\n"))
	assert.Zero(t, parseXftDPI(""))
}

func TestRoundScale(t *testing.T) {
	assert.Equal(t, 1.0, roundScale(1.02))
	assert.Equal(t, 1.5, roundScale(1.45))
	assert.Equal(t, 2.7, roundScale(2.7))
	assert.Equal(t, 4.0, roundScale(9))
	assert.Equal(t, 0.5, roundScale(0.1))
}

func TestPhysicalScale(t *testing.T) {
	assert.Equal(t, 1.0, physicalScale(1920, 508))
	assert.Equal(t, 2.0, physicalScale(3840, 508))
	assert.Zero(t, physicalScale(1920, 0))
	assert.Zero(t, physicalScale(1920, 10), "implausible density")
}

func TestEnvScale(t *testing.T) {
	for _, name := range scaleEnvVars {
		t.Setenv(name, "")
	}
	assert.Zero(t, envScale())

	t.Setenv("QT_SCALE_FACTOR", "1.5")
	assert.Equal(t, 1.5, envScale())

	t.Setenv("GDK_SCALE", " 2 ")
	assert.Equal(t, 2.0, envScale(), "earlier variables win")

	t.Setenv("GTK_SCALE", "-1")
	assert.Equal(t, 2.0, envScale(), "non-positive values are ignored")
}

func TestIconFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0xff, A: 0xff})

	ic := iconFromImage(img)
	require.NotNil(t, ic)
	assert.Equal(t, 2, ic.width)
	assert.Equal(t, 1, ic.height)
	assert.Equal(t, []uint32{0x44112233, 0xffff0000}, ic.argb)
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0x44, 0x00, 0x00, 0xff, 0xff}, ic.bgra())

	assert.Nil(t, iconFromImage(image.NewNRGBA(image.Rectangle{})))
}

func TestLoadIcon(t *testing.T) {
	ic, err := loadIcon("")
	assert.NoError(t, err)
	assert.Nil(t, ic)

	dir := t.TempDir()
	_, err = loadIcon(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(2, 1, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})

	pngPath := filepath.Join(dir, "icon.png")
	writeImage(t, pngPath, func(f *os.File) error { return png.Encode(f, img) })
	ic, err = loadIcon(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 3, ic.width)
	assert.Equal(t, uint32(0xff102030), ic.argb[5])

	bmpPath := filepath.Join(dir, "icon.bmp")
	writeImage(t, bmpPath, func(f *os.File) error { return bmp.Encode(f, img) })
	ic, err = loadIcon(bmpPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ic.height)
	assert.Equal(t, uint32(0xff102030), ic.argb[5])
	assert.Equal(t, uint32(0xffffffff), ic.argb[0])

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = loadIcon(junk)
	assert.Error(t, err)
}

func writeImage(t *testing.T, path string, encode func(*os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f))
}

func TestIconErrorsAreValidationStage(t *testing.T) {
	b := &fakeBackend{}
	p, opens := newFakePlatform(b)
	attrs := DefaultWindowAttributes()
	attrs.IconPath = filepath.Join(t.TempDir(), "nope.png")
	_, err := p.NewWindow(attrs, DefaultPixelFormatRequirements(), DefaultGLAttributes(), PlatformExtras{})
	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageValidate, cerr.Stage)
	assert.Zero(t, opens.Load())
}

func TestPrimaryOf(t *testing.T) {
	_, err := primaryOf(nil)
	assert.ErrorIs(t, err, ErrOsError)

	first := MonitorID{name: "a"}
	m, err := primaryOf([]MonitorID{first, {name: "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a", m.Name(), "falls back to the first monitor")
}

func TestMonitorIdentity(t *testing.T) {
	m := MonitorID{
		name:   "DELL U2720Q",
		native: NativeMonitorID{Name: `\\.\DISPLAY1`, Named: true},
		width:  3840, height: 2160,
	}
	assert.Equal(t, `\\.\DISPLAY1`, m.NativeID().String())
	w, h := m.Dimensions()
	assert.Equal(t, [2]int{3840, 2160}, [2]int{w, h})
	assert.Contains(t, m.String(), "3840x2160+0+0")

	assert.Equal(t, "7", NativeMonitorID{Numeric: 7}.String())
}

func TestExtensionList(t *testing.T) {
	exts := extensionList("GLX_ARB_create_context GLX_EXT_swap_control_tear  GLX_ARB_multisample")
	assert.True(t, exts.has("GLX_ARB_create_context"))
	assert.True(t, exts.has("GLX_ARB_multisample"))
	assert.False(t, exts.has("GLX_EXT_swap_control"), "prefixes do not match")
	assert.False(t, extensionList("").has("GLX_ARB_create_context"))
}

func TestErrorWrapping(t *testing.T) {
	inner := creationErr(StageContext, ErrOpenGLVersionNotSupported)
	outer := creationErr(StageWindow, inner)
	assert.Same(t, inner, outer, "an existing stage is kept")
	assert.Equal(t, "create window (context): requested OpenGL version not supported", outer.Error())

	cause := errors.New("BadAlloc")
	err := osErr("glXCreateContextAttribsARB", cause)
	assert.ErrorIs(t, err, ErrOsError)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, osErr("XOpenDisplay", nil), ErrOsError)

	assert.ErrorIs(t, ErrSharingUnsupported, ErrNotSupported)
}

func TestValidateAttributes(t *testing.T) {
	ok := func(mod func(*WindowAttributes, *PixelFormatRequirements, *GLAttributes)) error {
		attrs, reqs, gl := DefaultWindowAttributes(), DefaultPixelFormatRequirements(), DefaultGLAttributes()
		mod(&attrs, &reqs, &gl)
		return validateAttributes(attrs, reqs, gl)
	}
	assert.NoError(t, ok(func(*WindowAttributes, *PixelFormatRequirements, *GLAttributes) {}))
	assert.NoError(t, ok(func(_ *WindowAttributes, _ *PixelFormatRequirements, gl *GLAttributes) {
		gl.Request = GLRequest{API: APIOpenGLES, Major: 3, Minor: 1}
		gl.Robustness = TryRobustNoResetNotification
	}))
	assert.ErrorIs(t, ok(func(a *WindowAttributes, _ *PixelFormatRequirements, _ *GLAttributes) {
		a.Width = -1
	}), ErrNotSupported)
	assert.ErrorIs(t, ok(func(a *WindowAttributes, _ *PixelFormatRequirements, _ *GLAttributes) {
		a.MaxHeight = 10
	}), ErrNotSupported)
	assert.ErrorIs(t, ok(func(_ *WindowAttributes, _ *PixelFormatRequirements, gl *GLAttributes) {
		gl.Request = GLRequest{API: APIOpenGLES, Major: 4}
	}), ErrOpenGLVersionNotSupported)
	assert.ErrorIs(t, ok(func(_ *WindowAttributes, _ *PixelFormatRequirements, gl *GLAttributes) {
		gl.Robustness = RobustNoResetNotification
	}), ErrRobustnessNotSupported)

	w, h := WindowAttributes{}.size()
	assert.Equal(t, [2]int{800, 600}, [2]int{w, h})
}

func TestViewToPixels(t *testing.T) {
	assert.Equal(t, Position{X: 20, Y: 160}, viewToPixels(10, 20, 100, 2))
	assert.Equal(t, Position{X: 10, Y: 80}, viewToPixels(10, 20, 100, 0))
	assert.Equal(t, ScrollDelta{Kind: LineDelta, X: 1, Y: -1}, scrollDelta(1, -1, false, 0))
}
