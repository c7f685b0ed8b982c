package features

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Resampling filters accepted by Canvas.Filter.
const (
	FilterNearest        = "nearest"
	FilterApproxBiLinear = "approx-bilinear"
	FilterBiLinear       = "bilinear"
	FilterCatmullRom     = "catmull-rom"
)

// Default canvas dimensions. Every image is resampled to this size so that
// vectors from different sources become directly comparable.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Canvas is the canonical resolution and resampling filter images are
// normalized to. It is passed explicitly to every normalization call.
type Canvas struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Filter string `yaml:"filter,omitempty"`
}

// DefaultCanvas returns the 320x240 Catmull-Rom canvas.
func DefaultCanvas() Canvas {
	return Canvas{Width: DefaultWidth, Height: DefaultHeight, Filter: FilterCatmullRom}
}

// Len returns the feature vector length, three channels per pixel.
func (c Canvas) Len() int {
	return 3 * c.Width * c.Height
}

// Validate checks the canvas dimensions and filter name.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Width, c.Height)
	}
	if _, err := c.interpolator(); err != nil {
		return err
	}
	return nil
}

func (c Canvas) interpolator() (draw.Interpolator, error) {
	switch c.Filter {
	case "", FilterCatmullRom:
		return draw.CatmullRom, nil
	case FilterBiLinear:
		return draw.BiLinear, nil
	case FilterApproxBiLinear:
		return draw.ApproxBiLinear, nil
	case FilterNearest:
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown resampling filter %q", c.Filter)
	}
}
