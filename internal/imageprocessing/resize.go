package imageprocessing

import (
	"image"

	"github.com/disintegration/imaging"
)

// FitDimensions returns the size of a width x height image scaled so that
// neither side exceeds maxDimension. The aspect ratio is kept and images that
// already fit are returned unchanged, so the result is never larger than the input.
func FitDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		scaled := int(float64(height)*float64(maxDimension)/float64(width) + 0.5)
		return maxDimension, max(scaled, 1)
	}
	scaled := int(float64(width)*float64(maxDimension)/float64(height) + 0.5)
	return max(scaled, 1), maxDimension
}

// FitWithin downsamples img with a Lanczos filter until neither side exceeds
// maxDimension. Images that already fit are returned as they are.
func FitWithin(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	width, height := FitDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if width == bounds.Dx() && height == bounds.Dy() {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// CreateThumbnail converts img to non-premultiplied RGBA, keeping transparency,
// and bounds it to maxDimension on its longer side. It never upscales.
func CreateThumbnail(img image.Image, maxDimension int) *image.NRGBA {
	bounds := img.Bounds()
	width, height := FitDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if width == bounds.Dx() && height == bounds.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
