package imageprocessing

import (
	"fmt"
	"log/slog"
)

const defaultSVGSize = 1500

// PngConverterParams represents typed parameters for the PNG converter
type PngConverterParams struct {
	Optimize bool
	SVGSize  int
}

// NewPngConverterParamsFromMap creates PngConverterParams from a generic map
func NewPngConverterParamsFromMap(params map[string]any) (*PngConverterParams, error) {
	svgSize := getIntParam(params, "svgSize", defaultSVGSize)
	if svgSize <= 0 {
		return nil, fmt.Errorf("svgSize must be positive, got %d", svgSize)
	}

	return &PngConverterParams{
		Optimize: getBoolParam(params, "optimize", true),
		SVGSize:  svgSize,
	}, nil
}

// PngConverterCommand decodes any supported format and re-encodes it as PNG.
// Input that already is PNG is re-encoded as well so that the optimize
// setting always applies to the output.
type PngConverterCommand struct {
	name   string
	params *PngConverterParams
}

// NewPngConverterCommand creates a new PNG converter command from configuration parameters
func NewPngConverterCommand(params map[string]any) (Command, error) {
	typedParams, err := NewPngConverterParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PngConverterCommand{
		name:   "PngConverterCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *PngConverterCommand) Name() string {
	return c.name
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := DecodeImage(imageData, c.params.SVGSize)
	if err != nil {
		return nil, err
	}

	slog.Debug("PngConverterCommand: decoded image",
		"current_format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	return EncodePNG(img, c.params.Optimize)
}

func init() {
	registerCommand("PngConverterCommand", NewPngConverterCommand)
}
