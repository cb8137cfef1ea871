// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestParseWindowFunc(t *testing.T) {
	for _, w := range []WindowFunc{BartlettHann, Blackman, BlackmanNuttall, Hann, Hamming, Lanczos, Nuttall, Rectangular} {
		got, err := ParseWindowFunc(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", w.String(), got, err)
		}
	}
	if got, err := ParseWindowFunc("HANNING"); err != nil || got != Hann {
		t.Errorf("ParseWindowFunc(HANNING) = %v, %v", got, err)
	}
	if got, err := ParseWindowFunc("triangle"); err == nil || got != Hann {
		t.Errorf("ParseWindowFunc(triangle) = %v, %v; want Hann and an error", got, err)
	}
}

func TestWindowCoefficients(t *testing.T) {
	rect := windowCoefficients(8, Rectangular)
	for i, c := range rect {
		if c != 1 {
			t.Errorf("rectangular[%d] = %v", i, c)
		}
	}

	hann := windowCoefficients(64, Hann)
	if math.Abs(hann[0]) > 1e-12 || math.Abs(hann[63]) > 1e-12 {
		t.Errorf("hann endpoints = %v, %v; want 0", hann[0], hann[63])
	}
	for i := range 32 {
		if math.Abs(hann[i]-hann[63-i]) > 1e-12 {
			t.Fatalf("hann not symmetric at %d", i)
		}
	}
}
