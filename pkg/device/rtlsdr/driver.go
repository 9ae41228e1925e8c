package rtlsdr

import (
	gsdr "github.com/jpoirier/gortlsdr"
)

// Driver is the slice of librtlsdr the device needs. The default
// implementation calls through gortlsdr; tests substitute their own.
type Driver interface {
	DeviceCount() int
	USBStrings(index int) (manufacturer, product, serial string, err error)
	Open(index int) (Handle, error)
}

// Handle is one opened tuner. Gains are in tenths of a dB, frequencies and
// rates in Hz, as librtlsdr reports them.
type Handle interface {
	Close() error

	SetSampleRate(rate int) error
	ResetBuffer() error

	SetCenterFreq(hz int) error
	GetCenterFreq() int

	GetTunerGains() ([]int, error)
	SetTunerGain(tenthsDB int) error
	GetTunerGain() int
	SetTunerGainMode(manual bool) error
	SetAgcMode(on bool) error

	// ReadAsync blocks, invoking cb from the driver's thread for every
	// filled buffer, until CancelAsync is called.
	ReadAsync(cb func(buf []byte)) error
	CancelAsync() error
}

type librtlsdr struct{}

// DefaultDriver talks to attached hardware through librtlsdr.
var DefaultDriver Driver = librtlsdr{}

func (librtlsdr) DeviceCount() int {
	return gsdr.GetDeviceCount()
}

func (librtlsdr) USBStrings(index int) (string, string, string, error) {
	return gsdr.GetDeviceUsbStrings(index)
}

func (librtlsdr) Open(index int) (Handle, error) {
	ctx, err := gsdr.Open(index)
	if err != nil {
		return nil, err
	}
	return &gsdrHandle{Context: ctx}, nil
}

type gsdrHandle struct {
	*gsdr.Context
}

func (h *gsdrHandle) ReadAsync(cb func(buf []byte)) error {
	// Zero buffer count and length select librtlsdr's defaults.
	return h.Context.ReadAsync(cb, nil, 0, 0)
}
