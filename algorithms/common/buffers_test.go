package common

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestDelayLine_DotOrdersOldestFirst(t *testing.T) {
	dl, err := NewDelayLine(3)
	if err != nil {
		t.Fatalf("NewDelayLine failed: %v", err)
	}

	for _, v := range []float64{1, 2, 3, 4} {
		dl.Push(v)
	}

	// holds 2, 3, 4 oldest first
	got := dl.Dot([]float64{100, 10, 1})
	if got != 234 {
		t.Errorf("Dot = %v, want 234", got)
	}

	dl.Clear()
	if got := dl.Dot([]float64{1, 1, 1}); got != 0 {
		t.Errorf("Dot after Clear = %v, want 0", got)
	}
	if dl.Size() != 3 {
		t.Errorf("Size = %d, want 3", dl.Size())
	}

	if _, err := NewDelayLine(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero size: error = %v, want ErrInvalidConfig", err)
	}
}

func TestMathHelpers(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Errorf("Mean = %v, want 3", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if AllFinite([]float64{0, math.NaN()}) {
		t.Error("AllFinite accepted NaN")
	}
	if !AllFinite([]float64{-1, 1e300}) {
		t.Error("AllFinite rejected finite values")
	}
}
