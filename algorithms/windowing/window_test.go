package windowing

import (
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

const windowTolerance = 1e-9

func TestCoefficient(t *testing.T) {
	tests := []struct {
		name string
		kind WindowType
		n    int
		size int
		want float64
	}{
		{"blackman start", WindowBlackman, 0, 9, 0.0},
		{"blackman centre", WindowBlackman, 4, 9, 1.0},
		{"blackman end", WindowBlackman, 8, 9, 0.0},
		{"hamming start", WindowHamming, 0, 9, 0.08},
		{"hamming centre", WindowHamming, 4, 9, 1.0},
		{"degenerate size", WindowHamming, 0, 1, 1.0},
		{"unknown falls back to hamming", WindowType(42), 4, 9, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Coefficient(tc.kind, tc.n, tc.size)
			if math.Abs(got-tc.want) > windowTolerance {
				t.Errorf("Coefficient = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTablesMatchCoefficient(t *testing.T) {
	const size = 33

	blackman := NewBlackman(size).GetCoefficients()
	hamming := NewHamming(size).GetCoefficients()

	for n := range size {
		if want := Coefficient(WindowBlackman, n, size); math.Abs(blackman[n]-want) > windowTolerance {
			t.Errorf("blackman[%d] = %v, want %v", n, blackman[n], want)
		}
		if want := Coefficient(WindowHamming, n, size); math.Abs(hamming[n]-want) > windowTolerance {
			t.Errorf("hamming[%d] = %v, want %v", n, hamming[n], want)
		}
		// symmetric
		if math.Abs(blackman[n]-blackman[size-1-n]) > windowTolerance {
			t.Errorf("blackman not symmetric at %d", n)
		}
	}
}

func TestApplyInPlace(t *testing.T) {
	w := NewBlackman(5)
	signal := []float64{1, 1, 1, 1, 1}
	if err := w.ApplyInPlace(signal); err != nil {
		t.Fatalf("ApplyInPlace failed: %v", err)
	}
	coeffs := w.GetCoefficients()
	for i := range signal {
		if signal[i] != coeffs[i] {
			t.Errorf("signal[%d] = %v, want %v", i, signal[i], coeffs[i])
		}
	}

	if err := w.ApplyInPlace(make([]float64, 4)); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("length mismatch: error = %v, want ErrInvalidConfig", err)
	}
	if w.GetSize() != 5 || w.GetType() != "blackman" {
		t.Errorf("GetSize/GetType = %d/%s", w.GetSize(), w.GetType())
	}
}

func TestGaussian(t *testing.T) {
	if got := Gaussian(5, 10, 2); got != 1.0 {
		t.Errorf("Gaussian at centre = %v, want 1", got)
	}
	want := math.Exp(-4.0 / 8.0)
	if got := Gaussian(3, 10, 2); math.Abs(got-want) > windowTolerance {
		t.Errorf("Gaussian(3, 10, 2) = %v, want %v", got, want)
	}
}

func TestConvolve(t *testing.T) {
	input := []float64{3, 6, 9, 12}
	got := Convolve(input, []float64{1, 1, 1})
	want := []float64{3, 6, 9, 7}

	for i := range want {
		if math.Abs(got[i]-want[i]) > windowTolerance {
			t.Errorf("Convolve[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if out := Convolve(input, nil); len(out) != len(input) {
		t.Errorf("empty kernel: length = %d, want %d", len(out), len(input))
	}
}

func TestTemporalWindowFactory(t *testing.T) {
	f := NewTemporalWindowFactory(&logging.NoOpLogger{})

	a, err := f.Get(1024)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, _ := f.Get(1024)
	if a != b {
		t.Error("same size returned different windows")
	}
	c, _ := f.Get(2048)
	if a == c {
		t.Error("different sizes returned the same window")
	}
	if _, err := f.Get(0); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("zero size: error = %v, want ErrInvalidConfig", err)
	}
	if f.Len() != 2 {
		t.Errorf("Len = %d, want 2", f.Len())
	}

	var wg sync.WaitGroup
	windows := make([]*Blackman, 16)
	for i := range windows {
		wg.Add(1)
		go func() {
			defer wg.Done()
			windows[i], _ = f.Get(4096)
		}()
	}
	wg.Wait()
	for i := range windows {
		if windows[i] != windows[0] {
			t.Fatalf("concurrent Get %d returned a different window", i)
		}
	}
}
