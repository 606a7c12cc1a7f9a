package trajectory

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestToy(t *testing.T) {
	for _, kind := range []int{ToyRamp, ToyArc} {
		for _, d := range []int{2, 3} {
			c, err := Toy(kind, d, 50, 40, 0.5, 7)
			if err != nil {
				t.Fatalf("Toy(%d, %d) error: %v", kind, d, err)
			}
			if len(c) != 50 {
				t.Fatalf("expected 50 trajectories, got %d", len(c))
			}
			if err := c.Validate(); err != nil {
				t.Fatalf("toy cluster invalid: %v", err)
			}
			if c.Dimension() != d {
				t.Errorf("dimension = %d, want %d", c.Dimension(), d)
			}
		}
	}
}

func TestToy_Deterministic(t *testing.T) {
	a, err := Toy(ToyRamp, 2, 3, 10, 1.0, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Toy(ToyRamp, 2, 3, 10, 1.0, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !mat.Equal(a[i].Positions, b[i].Positions) {
			t.Fatalf("trajectory %d differs between runs with the same seed", i)
		}
	}
}

func TestToy_InvalidArgs(t *testing.T) {
	if _, err := Toy(ToyRamp, 4, 1, 10, 0, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := Toy(9, 2, 1, 10, 0, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if _, err := Toy(ToyArc, 2, 0, 10, 0, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}
