// Package channels holds the DAB Band III channel raster.
package channels

import (
	"fmt"
	"strings"

	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/Opendigitalradio/libdabdevice/pkg/util"
)

type Channel struct {
	Name   string
	Center types.Frequency
}

func (c Channel) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Center)
}

var all = []Channel{
	{"5A", types.KHz(174928)},
	{"5B", types.KHz(176640)},
	{"5C", types.KHz(178352)},
	{"5D", types.KHz(180064)},
	{"6A", types.KHz(181936)},
	{"6B", types.KHz(183648)},
	{"6C", types.KHz(185360)},
	{"6D", types.KHz(187072)},
	{"7A", types.KHz(188928)},
	{"7B", types.KHz(190640)},
	{"7C", types.KHz(192352)},
	{"7D", types.KHz(194064)},
	{"8A", types.KHz(195936)},
	{"8B", types.KHz(197648)},
	{"8C", types.KHz(199360)},
	{"8D", types.KHz(201072)},
	{"9A", types.KHz(202928)},
	{"9B", types.KHz(204640)},
	{"9C", types.KHz(206352)},
	{"9D", types.KHz(208064)},
	{"10A", types.KHz(209936)},
	{"10B", types.KHz(211648)},
	{"10C", types.KHz(213360)},
	{"10D", types.KHz(215072)},
	{"11A", types.KHz(216928)},
	{"11B", types.KHz(218640)},
	{"11C", types.KHz(220352)},
	{"11D", types.KHz(222064)},
	{"12A", types.KHz(223936)},
	{"12B", types.KHz(225648)},
	{"12C", types.KHz(227360)},
	{"12D", types.KHz(229072)},
	{"13A", types.KHz(230748)},
	{"13B", types.KHz(232496)},
	{"13C", types.KHz(234208)},
	{"13D", types.KHz(235776)},
	{"13E", types.KHz(237448)},
	{"13F", types.KHz(239200)},
}

var byName = func() map[string]Channel {
	m := make(map[string]Channel, len(all))
	for _, ch := range all {
		m[ch.Name] = ch
	}
	return m
}()

// All returns the channels in raster order, 5A first.
func All() []Channel {
	ret := make([]Channel, len(all))
	copy(ret, all)
	return ret
}

// Lookup finds a channel by label. Labels are matched case-insensitively.
func Lookup(name string) (Channel, bool) {
	ch, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return ch, ok
}

// Frequency is Lookup for callers that only want something to tune to.
func Frequency(name string) (types.Frequency, error) {
	ch, ok := Lookup(name)
	if !ok {
		return types.Frequency{}, fmt.Errorf("unknown DAB channel %q", name)
	}
	return ch.Center, nil
}

// Band returns the lowest and highest channel centers.
func Band() (low, high types.Frequency) {
	freqs := make([]types.Frequency, len(all))
	for idx, ch := range all {
		freqs[idx] = ch.Center
	}
	return util.FrequencyRange(freqs...)
}

// InBand reports whether f lies between the lowest and highest channel
// centers.
func InBand(f types.Frequency) bool {
	low, high := Band()
	return f.Hertz() >= low.Hertz() && f.Hertz() <= high.Hertz()
}
