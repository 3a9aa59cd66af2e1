// Package fingerprint computes perceptual fingerprints for photo files and
// compares them. A fingerprint is a 64-bit difference hash (dHash): the image
// is downsampled to a 9x8 grayscale grid and each pixel is compared to its
// right-hand neighbor, one bit per comparison in row-major order. The hash is
// robust to brightness and compression changes but sensitive to structural
// content differences, which is what makes it usable for telling physical
// items apart.
package fingerprint

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Bits is the fixed fingerprint length. Every fingerprint produced by
// Generate has exactly this many bits.
const Bits = 64

// hashWidth x hashHeight is the downsample grid. One extra column so each of
// the 8x8 comparisons has a right-hand neighbor.
const (
	hashWidth  = 9
	hashHeight = 8
)

// Fingerprint is a fixed-length binary fingerprint of one image's pixel
// content. Size is carried explicitly so that comparisons can detect a
// violated length contract instead of silently comparing garbage.
type Fingerprint struct {
	Bits uint64
	Size int
}

// New returns a 64-bit fingerprint with the given bits.
func New(bits uint64) Fingerprint {
	return Fingerprint{Bits: bits, Size: Bits}
}

// Hex returns the fingerprint as a 16-character hex string.
func (f Fingerprint) Hex() string {
	return fmt.Sprintf("%016x", f.Bits)
}

// ImageReadError reports that a photo file could not be read or decoded.
// It is a per-photo failure: callers exclude the photo from the batch rather
// than aborting the whole grouping pass.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	return fmt.Sprintf("reading image %s: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error {
	return e.Err
}

// Generate computes the fingerprint for the image at path. The result is
// deterministic: the same file always yields the same fingerprint. Failures
// to open or decode the file are reported as *ImageReadError.
func Generate(path string) (Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, &ImageReadError{Path: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return Fingerprint{}, &ImageReadError{Path: path, Err: err}
	}

	return FromImage(img), nil
}

// FromImage computes the difference hash of an already decoded image.
func FromImage(img image.Image) Fingerprint {
	gray := toGrayscale(resizeImage(img, hashWidth, hashHeight))

	// Compare adjacent pixels horizontally: 8 rows x 8 comparisons = 64 bits,
	// most significant bit first.
	var hash uint64
	bit := Bits - 1
	for y := 0; y < hashHeight; y++ {
		for x := 0; x < hashWidth-1; x++ {
			if gray[x][y] > gray[x+1][y] {
				hash |= 1 << bit
			}
			bit--
		}
	}

	return New(hash)
}

// resizeImage scales an image to the specified dimensions.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// toGrayscale converts an image to a 2D array of grayscale values (0-255).
func toGrayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, width)
	for x := 0; x < width; x++ {
		gray[x] = make([]float64, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray[x][y] = luma
		}
	}

	return gray
}
