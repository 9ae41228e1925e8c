package types

import (
	"errors"
	"fmt"
	"math"
)

var ErrFrequencyRange = errors.New("frequency outside 0 Hz to 4294967295 Hz")

// Frequency is a center frequency in Hz. Build one with Hz, KHz or MHz so the
// unit is always explicit at the call site.
type Frequency struct {
	hz uint32
}

func Hz(hz uint32) Frequency {
	return Frequency{hz: hz}
}

// KHz and MHz are meant for constants known to fit. Values from users go
// through CheckedKHz and CheckedMHz.
func KHz(khz float64) Frequency {
	return Frequency{hz: uint32(math.Round(khz * 1e3))}
}

func MHz(mhz float64) Frequency {
	return Frequency{hz: uint32(math.Round(mhz * 1e6))}
}

// CheckedHz rejects what a Frequency cannot hold instead of wrapping it.
func CheckedHz(hz float64) (Frequency, error) {
	rounded := math.Round(hz)
	if math.IsNaN(rounded) || rounded < 0 || rounded > math.MaxUint32 {
		return Frequency{}, fmt.Errorf("%w: %g Hz", ErrFrequencyRange, hz)
	}
	return Frequency{hz: uint32(rounded)}, nil
}

func CheckedKHz(khz float64) (Frequency, error) {
	return CheckedHz(khz * 1e3)
}

func CheckedMHz(mhz float64) (Frequency, error) {
	return CheckedHz(mhz * 1e6)
}

// Hertz returns the raw Hz count for APIs that do not understand Frequency,
// like the driver libraries.
func (f Frequency) Hertz() uint32 {
	return f.hz
}

func (f Frequency) String() string {
	return fmt.Sprintf("%0.4f MHz", float64(f.hz)/1e6)
}
