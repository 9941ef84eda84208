// Package capture reads rendered pixels back from the device and writes
// them out as images.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sceneview/internal/gpu"
	"sceneview/internal/log"
	"sceneview/internal/render"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var logger = log.New("capture")

var (
	ErrNoOutput          = errors.New("capture: frame has no preserved output")
	ErrUnsupportedFormat = errors.New("capture: unsupported image format")
)

// Formats lists the image formats Encode understands.
var Formats = []string{"png", "bmp", "tiff"}

// Output reads attachment i of fr's final pass as preserved after the last
// frame.
func Output(device gpu.Device, fr *render.FrameRender, i int) (*image.RGBA, error) {
	b := fr.Output(i)
	if b == nil {
		return nil, fmt.Errorf("%w: %s attachment %d", ErrNoOutput, fr.Name(), i)
	}
	return Buffer(device, b)
}

// Buffer reads a single-sampled RGBA8 buffer through a temporary
// framebuffer. The default framebuffer is bound afterwards.
func Buffer(device gpu.Device, b *render.AttachmentBuffer) (*image.RGBA, error) {
	k := b.Key
	if k.Format != gpu.RGBA8 || k.Samples > 1 {
		return nil, fmt.Errorf("%w: cannot read %s x%d", gpu.ErrUnsupportedCapability, k.Format, k.Samples)
	}
	fb, err := device.CreateFramebuffer()
	if err != nil {
		return nil, err
	}
	defer device.DeleteFramebuffer(fb)

	if k.Sampled {
		device.AttachTexture(fb, gpu.Color0, b.Handle)
	} else {
		device.AttachRenderbuffer(fb, gpu.Color0, b.Handle)
	}
	if err := device.CheckFramebuffer(fb); err != nil {
		return nil, err
	}
	device.BindFramebuffer(fb)
	defer device.BindFramebuffer(gpu.NoHandle)
	return read(device, gpu.Rect{W: k.Width, H: k.Height})
}

// Screen reads r from the default framebuffer.
func Screen(device gpu.Device, r gpu.Rect) (*image.RGBA, error) {
	device.BindFramebuffer(gpu.NoHandle)
	return read(device, r)
}

func read(device gpu.Device, r gpu.Rect) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("capture: empty region %dx%d", r.W, r.H)
	}
	pix, err := device.ReadPixels(gpu.Color0, r)
	if err != nil {
		return nil, err
	}
	return Flip(pix, r.W, r.H)
}

// Flip turns bottom-row-first RGBA8 pixels into an image.
func Flip(pix []byte, width, height int) (*image.RGBA, error) {
	stride := width * 4
	if len(pix) != stride*height {
		return nil, fmt.Errorf("capture: got %d bytes for %dx%d", len(pix), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*stride : (height-y)*stride]
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}
	return img, nil
}

// FormatFromPath picks the image format from the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "bmp":
		return ext, nil
	case "tif", "tiff":
		return "tiff", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Encode writes img to w in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteFile encodes img into path, choosing the format by extension.
func WriteFile(path string, img image.Image) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := Encode(f, img, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	logger.Infof("wrote %s (%dx%d %s)", path, img.Bounds().Dx(), img.Bounds().Dy(), format)
	return nil
}
