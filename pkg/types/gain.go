package types

import (
	"fmt"
	"math"
)

// Gain is a receiver gain in dB.
type Gain struct {
	db float32
}

func DB(db float32) Gain {
	return Gain{db: db}
}

// Decibels returns the raw dB value.
func (g Gain) Decibels() float32 {
	return g.db
}

// Distance is the absolute difference between two gains. Gains are ordered by
// distance to a target, never compared directly.
func (g Gain) Distance(other Gain) float32 {
	return float32(math.Abs(float64(g.db - other.db)))
}

func (g Gain) String() string {
	return fmt.Sprintf("%.1f dB", g.db)
}
