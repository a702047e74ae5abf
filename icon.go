package glwindow

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
)

// icon is a decoded window icon as packed 0xAARRGGBB pixels, row major from
// the top-left corner.
type icon struct {
	width, height int
	argb          []uint32
}

func loadIcon(path string) (*icon, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open icon: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", path, err)
	}
	ic := iconFromImage(img)
	if ic == nil {
		return nil, fmt.Errorf("icon %s (%s): %w: empty image", path, format, ErrNotSupported)
	}
	return ic, nil
}

func iconFromImage(img image.Image) *icon {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	// Non-premultiplied so the values can be handed to window managers
	// as-is.
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	ic := &icon{width: b.Dx(), height: b.Dy(), argb: make([]uint32, b.Dx()*b.Dy())}
	for i := range ic.argb {
		p := rgba.Pix[i*4 : i*4+4]
		ic.argb[i] = uint32(p[3])<<24 | uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
	}
	return ic
}

// bgra returns the pixels in the little endian BGRA byte order used by
// Win32 DIBs.
func (ic *icon) bgra() []byte {
	out := make([]byte, len(ic.argb)*4)
	for i, px := range ic.argb {
		out[i*4+0] = byte(px)
		out[i*4+1] = byte(px >> 8)
		out[i*4+2] = byte(px >> 16)
		out[i*4+3] = byte(px >> 24)
	}
	return out
}
