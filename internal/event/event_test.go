// SPDX-License-Identifier: MIT
package event

import (
	"errors"
	"testing"
)

func TestWireCodes(t *testing.T) {
	tests := []struct {
		got  Event
		want uint8
	}{
		{None, 0},
		{ButtonDown(0), 1},
		{ButtonDown(3), 4},
		{ButtonUp(0), 5},
		{ButtonUp(3), 8},
		{LEDOn(0), 9},
		{LEDOn(3), 12},
		{LEDOff(0), 13},
		{LEDOff(3), 16},
	}

	for _, tt := range tests {
		t.Run(tt.got.String(), func(t *testing.T) {
			if uint8(tt.got) != tt.want {
				t.Errorf("code = %d, want %d", uint8(tt.got), tt.want)
			}
		})
	}
}

func TestSubRangesDoNotOverlap(t *testing.T) {
	for e := Event(0); e <= 20; e++ {
		n := 0
		for _, in := range []bool{e.IsButtonDown(), e.IsButtonUp(), e.IsLED()} {
			if in {
				n++
			}
		}
		if e.Valid() && n != 1 {
			t.Errorf("%d belongs to %d sub-ranges, want 1", e, n)
		}
		if !e.Valid() && n != 0 {
			t.Errorf("invalid code %d belongs to a sub-range", e)
		}
	}
}

func TestIndexAccessors(t *testing.T) {
	for i := range NumButtons {
		if got := ButtonDown(i).Button(); got != i {
			t.Errorf("ButtonDown(%d).Button() = %d", i, got)
		}
		if got := ButtonUp(i).Button(); got != i {
			t.Errorf("ButtonUp(%d).Button() = %d", i, got)
		}
	}
	for i := range NumLEDs {
		on, off := LED(i, true), LED(i, false)
		if on.LEDIndex() != i || off.LEDIndex() != i {
			t.Errorf("LED index mismatch for %d: on=%d off=%d", i, on.LEDIndex(), off.LEDIndex())
		}
		if !on.LEDIsOn() || off.LEDIsOn() {
			t.Errorf("LED %d on/off predicate wrong", i)
		}
	}
	if LED0On.Button() != -1 || Button0Down.LEDIndex() != -1 {
		t.Error("cross-range accessors should return -1")
	}
}

func TestConstructorsPanicOutOfRange(t *testing.T) {
	for _, fn := range []func(){
		func() { ButtonDown(4) },
		func() { ButtonUp(-1) },
		func() { LEDOn(4) },
		func() { LEDOff(-1) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		}()
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{"button2_down", Button2Down, false},
		{"BUTTON0_UP", Button0Up, false},
		{" led3_off ", LED3Off, false},
		{"9", LED0On, false},
		{"0", None, false},
		{"none", None, false},
		{"17", None, true},
		{"button4_down", None, true},
		{"", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEvent) {
					t.Fatalf("Parse(%q) error = %v, want ErrUnknownEvent", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for e := Button0Down; e <= LED3Off; e++ {
		got, err := Parse(e.String())
		if err != nil || got != e {
			t.Errorf("Parse(%q) = %v, %v", e.String(), got, err)
		}
	}
}
