package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/calvertml/visionchat"
)

// Images larger than this in either dimension are scaled down to fit,
// preserving aspect ratio, before being sent to a vision API.
const maxImageDim = 800

const jpegQuality = 85

// EncodeImage loads a JPEG or PNG file, scales it down to fit maxImageDim if
// needed, and re-encodes it as base64 JPEG ready to embed in a vision
// message.
func EncodeImage(path string) (visionchat.ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return visionchat.ImageData{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return visionchat.ImageData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	img = fitWithin(img, maxImageDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return visionchat.ImageData{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return visionchat.ImageData{
		MIMEType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// fitWithin scales img down so both dimensions are at most limit, preserving
// aspect ratio. Images already within the limit are returned unchanged.
func fitWithin(img image.Image, limit int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= limit && h <= limit {
		return img
	}

	scale := float64(limit) / float64(w)
	if h > w {
		scale = float64(limit) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
