package device

import "github.com/Opendigitalradio/libdabdevice/pkg/types"

// NearestGain returns the entry of table closest to target. On a tie the entry
// found first wins. It returns false for an empty table.
func NearestGain(table []types.Gain, target types.Gain) (types.Gain, bool) {
	if len(table) == 0 {
		return types.Gain{}, false
	}

	closest := table[0]
	for _, current := range table[1:] {
		if current.Distance(target) < closest.Distance(target) {
			closest = current
		}
	}
	return closest, true
}
