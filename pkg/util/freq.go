package util

import (
	"math"

	"github.com/Opendigitalradio/libdabdevice/pkg/types"
)

// FrequencyRange returns the lowest and highest of freqs. With no input low
// is above high.
func FrequencyRange(freqs ...types.Frequency) (low, high types.Frequency) {
	low = types.Hz(math.MaxUint32)
	high = types.Hz(0)

	for _, freq := range freqs {
		if freq.Hertz() < low.Hertz() {
			low = freq
		}
		if freq.Hertz() > high.Hertz() {
			high = freq
		}
	}

	return
}
