package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

func TestUnitSphere(t *testing.T) {
	c, err := UnitSphere(2, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 12 {
		t.Errorf("circle samples = %d, want 12", len(c))
	}
	s, err := UnitSphere(3, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 144 {
		t.Errorf("sphere samples = %d, want 144", len(s))
	}
	for _, p := range s {
		r := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		if math.Abs(r-1) > 1e-12 {
			t.Fatalf("sphere sample %v has radius %v", p, r)
		}
	}
	if _, err := UnitSphere(4, 12); err == nil {
		t.Error("expected error for 4D")
	}
	if _, err := UnitSphere(2, 2); err == nil {
		t.Error("expected error for too few samples")
	}
}

func TestEllipsoid_MahalanobisRadius(t *testing.T) {
	mean := []float64{3, -2}
	cov := mat.NewSymDense(2, []float64{4, 1.5, 1.5, 1})
	width := 2.0

	pts, err := Ellipsoid(mean, cov, width, 20)
	if err != nil {
		t.Fatalf("Ellipsoid error: %v", err)
	}

	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		t.Fatal(err)
	}
	for _, p := range pts {
		d := mat.NewVecDense(2, []float64{p[0] - mean[0], p[1] - mean[1]})
		m := mat.Inner(d, &inv, d)
		if math.Abs(math.Sqrt(m)-width) > 1e-9 {
			t.Fatalf("point %v at Mahalanobis distance %v, want %v", p, math.Sqrt(m), width)
		}
	}
}

func TestEllipsoid_ZeroCovariance(t *testing.T) {
	mean := []float64{1, 2, 3}
	pts, err := Ellipsoid(mean, mat.NewSymDense(3, nil), 3, 5)
	if err != nil {
		t.Fatalf("Ellipsoid error: %v", err)
	}
	for _, p := range pts {
		if !cmp.Equal(p, mean, cmpopts.EquateApprox(0, 1e-12)) {
			t.Fatalf("degenerate ellipsoid point %v, want %v", p, mean)
		}
	}
}

func TestUniqueRows(t *testing.T) {
	in := [][]float64{{1, 2}, {0, 5}, {1, 2}, {0, 5}, {3, 3}}
	got := UniqueRows(in)
	want := [][]float64{{0, 5}, {1, 2}, {3, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UniqueRows mismatch (-want +got):\n%s", diff)
	}
	if len(in) != 5 || in[0][0] != 1 {
		t.Error("UniqueRows modified its input")
	}
}

func TestOutline(t *testing.T) {
	o := MaxOutline(2)
	if !o.Empty() {
		t.Error("seed outline should be empty")
	}
	o.Extend([]float64{1, -1})
	o.Extend([]float64{-2, 4})
	want := Outline{Min: []float64{-2, -1}, Max: []float64{1, 4}}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
	if !o.Contains([]float64{0, 0}) || o.Contains([]float64{2, 0}) {
		t.Error("Contains gave the wrong answer")
	}
}
