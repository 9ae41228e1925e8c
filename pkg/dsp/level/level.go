package level

import (
	"math"
	"sync"
)

// Meter tracks the exponentially averaged power of a complex sample stream,
// the same running mean-square an RMS AGC normalizes by.
type Meter struct {
	mu      sync.Mutex
	alpha   float64
	beta    float64
	average float64
	peak    float64
}

// NewMeter returns a meter whose average moves by alpha toward each new
// sample's power.
func NewMeter(alpha float64) *Meter {
	return &Meter{
		alpha: alpha,
		beta:  1 - alpha,
	}
}

func (m *Meter) Write(s []complex64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < len(s); i++ {
		re, im := float64(real(s[i])), float64(imag(s[i]))
		magSquared := re*re + im*im
		m.average = m.beta*m.average + m.alpha*magSquared
		if magSquared > m.peak {
			m.peak = magSquared
		}
	}
	return nil
}

// RMS is the current root mean square magnitude.
func (m *Meter) RMS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Sqrt(m.average)
}

// DBFS is RMS relative to a full scale sample, -Inf for silence.
func (m *Meter) DBFS() float64 {
	return 20 * math.Log10(m.RMS())
}

// Peak returns the largest magnitude seen since the last call and resets it.
func (m *Meter) Peak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := math.Sqrt(m.peak)
	m.peak = 0
	return ret
}
