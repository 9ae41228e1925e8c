package types

import (
	"errors"
	"math"
	"testing"
)

func TestFrequencyUnits(t *testing.T) {
	tests := []struct {
		name string
		freq Frequency
		want uint32
	}{
		{"hz", Hz(227360000), 227360000},
		{"khz", KHz(227360), 227360000},
		{"khz fractional", KHz(174928.5), 174928500},
		{"mhz", MHz(227.36), 227360000},
		{"mhz integral", MHz(100), 100000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.freq.Hertz(); got != tt.want {
				t.Errorf("Hertz() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckedFrequency(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (Frequency, error)
		want    uint32
		wantErr bool
	}{
		{"mhz", func() (Frequency, error) { return CheckedMHz(227.36) }, 227360000, false},
		{"khz", func() (Frequency, error) { return CheckedKHz(174928) }, 174928000, false},
		{"zero", func() (Frequency, error) { return CheckedHz(0) }, 0, false},
		{"max", func() (Frequency, error) { return CheckedHz(math.MaxUint32) }, math.MaxUint32, false},
		{"mhz too large", func() (Frequency, error) { return CheckedMHz(5000) }, 0, true},
		{"negative khz", func() (Frequency, error) { return CheckedKHz(-1) }, 0, true},
		{"one past max", func() (Frequency, error) { return CheckedHz(math.MaxUint32 + 1) }, 0, true},
		{"nan", func() (Frequency, error) { return CheckedHz(math.NaN()) }, 0, true},
		{"inf", func() (Frequency, error) { return CheckedMHz(math.Inf(1)) }, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.build()
			if tt.wantErr {
				if !errors.Is(err, ErrFrequencyRange) {
					t.Errorf("err = %v, want ErrFrequencyRange", err)
				}
				return
			}
			if err != nil || f.Hertz() != tt.want {
				t.Errorf("got %d, %v; want %d", f.Hertz(), err, tt.want)
			}
		})
	}
}

func TestFrequencyComparable(t *testing.T) {
	if Hz(227360000) != KHz(227360) {
		t.Errorf("expected equal frequencies")
	}
}

func TestFrequencyString(t *testing.T) {
	if got := KHz(227360).String(); got != "227.3600 MHz" {
		t.Errorf("String() = %q", got)
	}
}

func TestGainDistance(t *testing.T) {
	tests := []struct {
		a, b Gain
		want float32
	}{
		{DB(10), DB(30), 20},
		{DB(30), DB(10), 20},
		{DB(-5), DB(5), 10},
		{DB(12.5), DB(12.5), 0},
	}
	for _, tt := range tests {
		if got := tt.a.Distance(tt.b); got != tt.want {
			t.Errorf("%v.Distance(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGainString(t *testing.T) {
	if got := DB(29.7).String(); got != "29.7 dB" {
		t.Errorf("String() = %q", got)
	}
}
