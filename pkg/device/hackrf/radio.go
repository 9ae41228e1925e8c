package hackrf

import "github.com/samuel/go-hackrf/hackrf"

// Radio is the subset of libhackrf the device drives.
type Radio interface {
	SetFreq(hz uint64) error
	SetSampleRateManual(freqHz, divider int) error
	SetBasebandFilterBandwidth(hz int) error
	SetLNAGain(db int) error
	SetVGAGain(db int) error
	SetAmpEnable(on bool) error
	// StartRX returns once streaming started; cb runs on the driver's
	// transfer thread and stops streaming by returning an error.
	StartRX(cb func(buf []byte) error) error
	StopRX() error
	Close() error
}

type libhackrf struct {
	*hackrf.Device
}

func (r libhackrf) StartRX(cb func(buf []byte) error) error {
	return r.Device.StartRX(cb)
}

// openRadio initializes libhackrf and opens the first board found. The
// returned release func undoes the initialization.
func openRadio() (Radio, func() error, error) {
	if err := hackrf.Init(); err != nil {
		return nil, nil, err
	}
	dev, err := hackrf.Open()
	if err != nil {
		hackrf.Exit()
		return nil, nil, err
	}
	return libhackrf{dev}, hackrf.Exit, nil
}
