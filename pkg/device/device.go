package device

import (
	"context"
	"errors"

	"github.com/Opendigitalradio/libdabdevice/pkg/types"
)

var (
	ErrUnsupportedOption = errors.New("option not supported by device")
	ErrTuneMismatch      = errors.New("tuned frequency differs from requested frequency")
	ErrNoGains           = errors.New("device reports no discrete gains")
	ErrAlreadyRunning    = errors.New("device is already running")
)

// Device is an I/Q sample source. Samples are normalized to [-1, 1] and pushed
// into the queue the device was built with.
//
// Only Run blocks. Stop and Running may be called from any goroutine while
// Run is in progress; all other methods belong to the goroutine that owns the
// device.
type Device interface {
	// Tune moves the receiver to the given center frequency. It returns
	// ErrTuneMismatch if the frequency read back from the hardware differs,
	// which some drivers do by rounding.
	Tune(centerFreq types.Frequency) error

	// SetGain applies the supported gain closest to g.
	SetGain(g types.Gain) error
	Gain() types.Gain
	// Gains lists the discrete gains the device supports. It is empty for
	// devices without gain control.
	Gains() []types.Gain

	// Run acquires samples until Stop is called, ctx is cancelled or the
	// source runs dry. Only one Run may be in flight per device.
	Run(ctx context.Context) error
	Running() bool
	// Stop requests the end of acquisition and returns immediately.
	Stop()

	// Enable and Disable toggle an option. Both are idempotent and return
	// ErrUnsupportedOption, leaving the device untouched, for options the
	// device does not implement.
	Enable(opt Option) error
	Disable(opt Option) error

	// Close releases the underlying driver or file handle. Run must have
	// returned before Close is called.
	Close() error
}
