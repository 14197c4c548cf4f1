package chroma

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// Chromagram is a time series of chroma vectors, one per analysis hop, each
// holding BandCount non-negative magnitudes
type Chromagram struct {
	hops [][]float64
}

// NewChromagram creates a chromagram of hops zeroed vectors
func NewChromagram(hops int) (*Chromagram, error) {
	if hops < 0 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "hop count must be >= 0, got %d", hops)
	}
	c := &Chromagram{hops: make([][]float64, hops)}
	for h := range c.hops {
		c.hops[h] = make([]float64, BandCount)
	}
	return c, nil
}

// Hops returns the number of hops
func (c *Chromagram) Hops() int {
	return len(c.hops)
}

// Bands returns the length of each chroma vector
func (c *Chromagram) Bands() int {
	return BandCount
}

// Magnitude returns the magnitude of band at hop
func (c *Chromagram) Magnitude(hop, band int) (float64, error) {
	if err := c.checkBounds(hop, band); err != nil {
		return 0, err
	}
	return c.hops[hop][band], nil
}

// SetMagnitude sets the magnitude of band at hop
func (c *Chromagram) SetMagnitude(hop, band int, value float64) error {
	if err := c.checkBounds(hop, band); err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Wrapf(common.ErrNonFinite, "cannot set magnitude of hop %d band %d to %v", hop, band, value)
	}
	c.hops[hop][band] = value
	return nil
}

// SetHop replaces the vector at hop
func (c *Chromagram) SetHop(hop int, vector []float64) error {
	if len(vector) != BandCount {
		return errors.Wrapf(common.ErrInvalidConfig, "chroma vector must have %d bands, got %d", BandCount, len(vector))
	}
	for band, value := range vector {
		if err := c.SetMagnitude(hop, band, value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chromagram) checkBounds(hop, band int) error {
	if hop < 0 || hop >= len(c.hops) {
		return errors.Wrapf(common.ErrOutOfBounds, "cannot access hop %d of %d", hop, len(c.hops))
	}
	if band < 0 || band >= BandCount {
		return errors.Wrapf(common.ErrOutOfBounds, "cannot access band %d of %d", band, BandCount)
	}
	return nil
}

// CollapseToOneHop returns the per-band mean over all hops; all zero when the
// chromagram is empty
func (c *Chromagram) CollapseToOneHop() []float64 {
	collapsed := make([]float64, BandCount)
	if len(c.hops) == 0 {
		return collapsed
	}
	scale := 1.0 / float64(len(c.hops))
	for _, hop := range c.hops {
		floats.AddScaled(collapsed, scale, hop)
	}
	return collapsed
}

// Append adds that's hops after this chromagram's hops
func (c *Chromagram) Append(that *Chromagram) {
	if that == nil {
		return
	}
	for _, hop := range that.hops {
		vector := make([]float64, BandCount)
		copy(vector, hop)
		c.hops = append(c.hops, vector)
	}
}
