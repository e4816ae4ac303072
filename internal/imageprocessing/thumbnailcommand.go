package imageprocessing

import (
	"fmt"
)

const defaultThumbnailMaxDimension = 400

// ThumbnailParams represents typed parameters for the thumbnail command
type ThumbnailParams struct {
	MaxDimension int
	Optimize     bool
}

// NewThumbnailParamsFromMap creates ThumbnailParams from a generic map
func NewThumbnailParamsFromMap(params map[string]any) (*ThumbnailParams, error) {
	maxDimension := getIntParam(params, "maxDimension", defaultThumbnailMaxDimension)
	if maxDimension <= 0 {
		return nil, fmt.Errorf("maxDimension must be positive, got %d", maxDimension)
	}

	return &ThumbnailParams{
		MaxDimension: maxDimension,
		Optimize:     getBoolParam(params, "optimize", true),
	}, nil
}

// ThumbnailCommand bounds the image to MaxDimension on its longer side. The
// scaled image is NRGBA in memory; the encoded PNG keeps an alpha channel only
// when the image has transparent pixels.
type ThumbnailCommand struct {
	name   string
	params *ThumbnailParams
}

// NewThumbnailCommand creates a new thumbnail command from configuration parameters
func NewThumbnailCommand(params map[string]any) (Command, error) {
	typedParams, err := NewThumbnailParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &ThumbnailCommand{
		name:   "ThumbnailCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *ThumbnailCommand) Name() string {
	return c.name
}

func (c *ThumbnailCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := DecodeImage(imageData, c.params.MaxDimension)
	if err != nil {
		return nil, err
	}

	return EncodePNG(CreateThumbnail(img, c.params.MaxDimension), c.params.Optimize)
}

// GetMaxDimension returns the configured bound
func (c *ThumbnailCommand) GetMaxDimension() int {
	return c.params.MaxDimension
}

func init() {
	registerCommand("ThumbnailCommand", NewThumbnailCommand)
}
