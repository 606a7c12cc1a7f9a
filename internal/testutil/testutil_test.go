package testutil

import (
	"errors"
	"fmt"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("boom"))
}

func TestAssertErrorIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	AssertErrorIs(t, fmt.Errorf("wrapped: %w", sentinel), sentinel)
}

func TestAssertFloatsNear(t *testing.T) {
	AssertFloatsNear(t, []float64{1, 2.0000001}, []float64{1, 2}, 1e-6)
}

func TestAssertFinite(t *testing.T) {
	AssertFinite(t, []float64{0, -1, 1e300})
}
