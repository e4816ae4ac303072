package imageprocessing

import (
	"fmt"
	"log/slog"
)

const (
	defaultMaxBytes            = 5 * 1024 * 1024
	defaultGuardedMaxDimension = 1500
)

// SizeGuardParams represents typed parameters for the size guard
type SizeGuardParams struct {
	MaxBytes     int
	MaxDimension int
}

// NewSizeGuardParamsFromMap creates SizeGuardParams from a generic map
func NewSizeGuardParamsFromMap(params map[string]any) (*SizeGuardParams, error) {
	maxBytes := getIntParam(params, "maxBytes", defaultMaxBytes)
	maxDimension := getIntParam(params, "maxDimension", defaultGuardedMaxDimension)

	if maxBytes <= 0 {
		return nil, fmt.Errorf("maxBytes must be positive, got %d", maxBytes)
	}
	if maxDimension <= 0 {
		return nil, fmt.Errorf("maxDimension must be positive, got %d", maxDimension)
	}

	return &SizeGuardParams{
		MaxBytes:     maxBytes,
		MaxDimension: maxDimension,
	}, nil
}

// SizeGuardCommand downsamples an encoded image once when it is larger than
// MaxBytes. The result is not checked against MaxBytes again and may still
// exceed it.
type SizeGuardCommand struct {
	name   string
	params *SizeGuardParams
}

// NewSizeGuardCommand creates a new size guard command from configuration parameters
func NewSizeGuardCommand(params map[string]any) (Command, error) {
	typedParams, err := NewSizeGuardParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &SizeGuardCommand{
		name:   "SizeGuardCommand",
		params: typedParams,
	}, nil
}

// NewSizeGuardCommandWithParams creates a new size guard command from concrete typed parameters
func NewSizeGuardCommandWithParams(maxBytes, maxDimension int) (*SizeGuardCommand, error) {
	command, err := NewSizeGuardCommand(map[string]any{
		"maxBytes":     maxBytes,
		"maxDimension": maxDimension,
	})
	if err != nil {
		return nil, err
	}
	return command.(*SizeGuardCommand), nil
}

// Name returns the command name
func (c *SizeGuardCommand) Name() string {
	return c.name
}

func (c *SizeGuardCommand) Execute(imageData []byte) ([]byte, error) {
	if len(imageData) <= c.params.MaxBytes {
		return imageData, nil
	}

	slog.Info("original too large, compressing",
		"size_mb", megabytes(len(imageData)),
		"max_dimension", c.params.MaxDimension)

	img, _, err := DecodeImage(imageData, c.params.MaxDimension)
	if err != nil {
		return nil, err
	}

	out, err := EncodePNG(FitWithin(img, c.params.MaxDimension), true)
	if err != nil {
		return nil, err
	}

	slog.Info("original compressed", "size_mb", megabytes(len(out)))
	return out, nil
}

// GetParams returns the typed parameters
func (c *SizeGuardCommand) GetParams() *SizeGuardParams {
	return c.params
}

func megabytes(n int) string {
	return fmt.Sprintf("%.1f", float64(n)/1024/1024)
}

func init() {
	registerCommand("SizeGuardCommand", NewSizeGuardCommand)
}
