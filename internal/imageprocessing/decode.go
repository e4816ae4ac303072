package imageprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/jo-hoe/logomigrator/internal/common"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatSVG is reported by DecodeImage for rasterized SVG input.
const FormatSVG = "svg"

var errEmptyImage = errors.New("image has no pixels")

// DecodeImage decodes raster data in any registered format, or rasterizes SVG
// data so that its longer side equals svgSize when the document has no
// explicit width and height. Raster signatures win over SVG markup, which may
// appear inside raster metadata.
func DecodeImage(data []byte, svgSize int) (image.Image, string, error) {
	if !IsRasterData(data) && IsSVGData(data) {
		img, err := renderSVG(data, svgSize)
		if err != nil {
			return nil, "", &common.DecodeError{Err: err}
		}
		return img, FormatSVG, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &common.DecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return nil, "", &common.DecodeError{Err: errEmptyImage}
	}
	return img, format, nil
}

// EncodePNG serializes the image as PNG. With optimize set the encoder uses
// the best compression level.
func EncodePNG(img image.Image, optimize bool) ([]byte, error) {
	encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
	if optimize {
		encoder.CompressionLevel = png.BestCompression
	}

	var buf bytes.Buffer
	bb := img.Bounds()
	// rough heuristic: 1 byte per pixel
	buf.Grow(bb.Dx() * bb.Dy())
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG image: %w", err)
	}
	return buf.Bytes(), nil
}

// IsRasterData reports whether data starts with the header of a registered
// raster format.
func IsRasterData(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// IsSVGData performs a lightweight detection of SVG content from raw bytes.
func IsSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	// Only inspect the first ~4KB for detection
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte(`xmlns="http://www.w3.org/2000/svg"`)) ||
		bytes.Contains(header, []byte(`xmlns='http://www.w3.org/2000/svg'`))
}

// renderSVG rasterizes the document onto a transparent canvas.
func renderSVG(svgData []byte, fallbackSize int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	width, height, ok := parseSvgExplicitSize(svgData)
	if !ok {
		width, height = scaleToLongerSide(icon.ViewBox.W, icon.ViewBox.H, fallbackSize)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", width, height)
	}

	icon.SetTarget(0, 0, float64(width), float64(height))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}

// scaleToLongerSide maps a viewBox to pixel dimensions whose longer side is size.
// Without a usable viewBox a square of size x size is returned.
func scaleToLongerSide(w, h float64, size int) (int, int) {
	if w <= 0 || h <= 0 {
		return size, size
	}
	if w >= h {
		return size, max(int(float64(size)*h/w+0.5), 1)
	}
	return max(int(float64(size)*w/h+0.5), 1), size
}

// parseSvgExplicitSize extracts width and height attributes of the root element.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	s := strings.ToLower(string(data[:n]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	j := strings.Index(s[i:], ">")
	if j < 0 {
		j = len(s)
	} else {
		j = i + j
	}
	tag := strings.NewReplacer("\n", " ", "\t", " ", "\r", " ").Replace(s[i:j])

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr extracts the leading integer of an attribute such as width="123px".
// Percentages are rejected since they carry no pixel size.
func parseNumericAttr(tag, attr string) (int, bool) {
	pos := strings.Index(tag, " "+attr+"=")
	if pos < 0 {
		return 0, false
	}
	rest := strings.TrimLeft(tag[pos+len(attr)+2:], " ")
	if rest == "" {
		return 0, false
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return 0, false
	}
	rest = rest[1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return 0, false
	}
	val := rest[:end]
	if strings.HasSuffix(strings.TrimSpace(val), "%") {
		return 0, false
	}

	num := 0
	found := false
	for i := 0; i < len(val); i++ {
		ch := val[i]
		if ch >= '0' && ch <= '9' {
			found = true
			num = num*10 + int(ch-'0')
		} else if found {
			break
		}
	}
	if !found || num <= 0 {
		return 0, false
	}
	return num, true
}
