package viz

import "sort"

const peakWindow = 13

type indexedValue struct {
	index int
	value float64
}

type indexedValues []indexedValue

func (v indexedValues) Len() int { return len(v) }

// Less sorts in descending order.
func (v indexedValues) Less(i, j int) bool { return v[i].value > v[j].value }

func (v indexedValues) Swap(i, j int) { v[i], v[j] = v[j], v[i] }

// FindPeaks returns the indexes of the up to numPeaks largest local maxima
// of data, strongest first. A local maximum is the largest value centered in
// a sliding window of peakWindow entries.
func FindPeaks(data []float64, numPeaks int) []int {
	peaks := make(indexedValues, 0)
	for i := 0; i+peakWindow <= len(data); i++ {
		max := data[i]
		maxIdx := 0
		for j := i + 1; j < i+peakWindow; j++ {
			if data[j] > max {
				maxIdx = j - i
				max = data[j]
			}
		}

		if maxIdx == peakWindow/2 {
			peaks = append(peaks, indexedValue{index: maxIdx + i, value: max})
		}
	}

	sort.Stable(peaks)

	ret := make([]int, 0, numPeaks)
	for i := 0; i < numPeaks && i < len(peaks); i++ {
		ret = append(ret, peaks[i].index)
	}
	return ret
}
