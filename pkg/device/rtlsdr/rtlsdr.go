package rtlsdr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	Type device.Type = "rtlsdr"

	// DefaultSampleRate is the 2.048 MSps a DAB ensemble is sampled at.
	DefaultSampleRate = 2048000
)

var (
	ErrNoDevice    = errors.New("no RTL-SDR device found")
	ErrOpen        = errors.New("error opening RTL-SDR device")
	ErrSampleRate  = errors.New("error setting sample rate")
	ErrGainMode    = errors.New("error setting gain mode")
	ErrGain        = errors.New("error setting gain")
	ErrResetBuffer = errors.New("error resetting buffers")
)

// Kind registers the RTL-SDR implementation with the device helpers.
var Kind = device.Kind{
	Type:        Type,
	Descriptors: Descriptors,
	Open: func(queue *samples.Queue, cfg device.Config) (device.Device, error) {
		opts := []RTLSDROption{}
		if cfg.SampleRate > 0 {
			opts = append(opts, WithSampleRate(cfg.SampleRate))
		}
		if g, ok := cfg.Gain(); ok {
			opts = append(opts, WithInitialGain(g))
		}
		if cfg.Logger != nil {
			opts = append(opts, WithLogger(*cfg.Logger))
		}
		return NewRTLSDRDevice(queue, cfg.Index, opts...)
	},
}

type RTLSDRDevice struct {
	device.Lifecycle

	deviceIdx  int
	driver     Driver
	handle     Handle
	sampleRate int
	logger     zerolog.Logger

	initialGain *types.Gain
	gains       []types.Gain

	queue *samples.Queue
	// Only the driver's callback goroutine touches sampleBuffer.
	sampleBuffer []complex64
}

type RTLSDROption func(r *RTLSDRDevice)

func WithDriver(driver Driver) RTLSDROption {
	return func(r *RTLSDRDevice) {
		r.driver = driver
	}
}

func WithSampleRate(rate int) RTLSDROption {
	return func(r *RTLSDRDevice) {
		r.sampleRate = rate
	}
}

// WithInitialGain replaces the default operating gain, the middle entry of
// the tuner's gain table, with the supported gain closest to g.
func WithInitialGain(g types.Gain) RTLSDROption {
	return func(r *RTLSDRDevice) {
		r.initialGain = &g
	}
}

func WithLogger(logger zerolog.Logger) RTLSDROption {
	return func(r *RTLSDRDevice) {
		r.logger = logger
	}
}

// NewRTLSDRDevice opens the deviceIdx-th attached stick and prepares it for
// acquisition into queue. The queue must outlive the device.
func NewRTLSDRDevice(queue *samples.Queue, deviceIdx int, opts ...RTLSDROption) (*RTLSDRDevice, error) {
	r := &RTLSDRDevice{
		deviceIdx:  deviceIdx,
		driver:     DefaultDriver,
		sampleRate: DefaultSampleRate,
		logger:     log.Logger,
		queue:      queue,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("device", string(Type)).Int("index", deviceIdx).Logger()

	if r.driver.DeviceCount() == 0 {
		return nil, ErrNoDevice
	}

	handle, err := r.driver.Open(deviceIdx)
	if err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrOpen, deviceIdx, err)
	}
	r.handle = handle

	if err := r.init(); err != nil {
		if cerr := handle.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Msg("error closing device after failed init")
		}
		return nil, err
	}

	r.logger.Debug().
		Int("sample_rate", r.sampleRate).
		Int("gains", len(r.gains)).
		Str("gain", r.Gain().String()).
		Msg("device initialized")

	return r, nil
}

func (r *RTLSDRDevice) init() error {
	if err := r.handle.SetSampleRate(r.sampleRate); err != nil {
		return fmt.Errorf("%w to %d: %v", ErrSampleRate, r.sampleRate, err)
	}

	tenths, err := r.handle.GetTunerGains()
	if err != nil {
		r.logger.Warn().Err(err).Msg("error querying tuner gains")
	}
	r.gains = make([]types.Gain, 0, len(tenths))
	for _, g := range tenths {
		r.gains = append(r.gains, types.DB(float32(g)/10))
	}

	if err := r.handle.SetTunerGainMode(true); err != nil {
		return fmt.Errorf("%w: %v", ErrGainMode, err)
	}

	if len(r.gains) == 0 {
		r.logger.Warn().Msg("tuner reports no gains, leaving gain untouched")
	} else {
		initial := r.gains[len(r.gains)/2]
		if r.initialGain != nil {
			initial, _ = device.NearestGain(r.gains, *r.initialGain)
		}
		if err := r.handle.SetTunerGain(tenthsOf(initial)); err != nil {
			return fmt.Errorf("%w to %s: %v", ErrGain, initial, err)
		}
	}

	if err := r.handle.ResetBuffer(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetBuffer, err)
	}
	return nil
}

func tenthsOf(g types.Gain) int {
	if g.Decibels() < 0 {
		return int(g.Decibels()*10 - 0.5)
	}
	return int(g.Decibels()*10 + 0.5)
}

func (r *RTLSDRDevice) Tune(centerFreq types.Frequency) error {
	if err := r.handle.SetCenterFreq(int(centerFreq.Hertz())); err != nil {
		return err
	}
	if actual := r.handle.GetCenterFreq(); uint32(actual) != centerFreq.Hertz() {
		return fmt.Errorf("%w: requested %d Hz, tuned %d Hz", device.ErrTuneMismatch, centerFreq.Hertz(), actual)
	}
	return nil
}

// SetGain switches the tuner to manual gain and turns AGC off before applying
// the closest supported gain.
func (r *RTLSDRDevice) SetGain(g types.Gain) error {
	if err := r.handle.SetTunerGainMode(true); err != nil {
		r.logger.Warn().Err(err).Msg("error switching to manual gain mode")
	}
	if err := r.handle.SetAgcMode(false); err != nil {
		r.logger.Warn().Err(err).Msg("error disabling AGC")
	}

	closest, ok := device.NearestGain(r.gains, g)
	if !ok {
		return device.ErrNoGains
	}
	return r.handle.SetTunerGain(tenthsOf(closest))
}

func (r *RTLSDRDevice) Gain() types.Gain {
	return types.DB(float32(r.handle.GetTunerGain()) / 10)
}

// Gains returns the table queried when the device was opened.
func (r *RTLSDRDevice) Gains() []types.Gain {
	ret := make([]types.Gain, len(r.gains))
	copy(ret, r.gains)
	return ret
}

func (r *RTLSDRDevice) Enable(opt device.Option) error {
	switch opt {
	case device.AutomaticGainControl:
		if err := r.handle.SetTunerGainMode(false); err != nil {
			r.logger.Warn().Err(err).Msg("error switching to automatic gain mode")
		}
		return r.handle.SetAgcMode(true)
	default:
		return device.ErrUnsupportedOption
	}
}

func (r *RTLSDRDevice) Disable(opt device.Option) error {
	switch opt {
	case device.AutomaticGainControl:
		if err := r.handle.SetTunerGainMode(true); err != nil {
			r.logger.Warn().Err(err).Msg("error switching to manual gain mode")
		}
		return r.handle.SetAgcMode(false)
	default:
		return device.ErrUnsupportedOption
	}
}

func (r *RTLSDRDevice) callback(ctx context.Context) func(buf []byte) {
	return func(buf []byte) {
		if cap(r.sampleBuffer) < len(buf)/2 {
			r.sampleBuffer = make([]complex64, len(buf)/2)
		}
		n := samples.NormalizeBuffer(buf, r.sampleBuffer[:len(buf)/2])

		// Enqueue copies, so the scratch buffer is free again on return.
		if err := r.queue.Enqueue(ctx, r.sampleBuffer[:n]...); err != nil {
			r.logger.Debug().Err(err).Msg("dropping buffer after stop")
		}
	}
}

// Run starts the driver's asynchronous read loop on its own goroutine and
// waits for Stop, ctx cancellation or the read loop failing. The wait parks
// on the run context instead of polling the running flag, so Stop is
// observed as soon as it is called.
func (r *RTLSDRDevice) Run(ctx context.Context) error {
	runCtx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.End()

	var wg sync.WaitGroup
	readErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		readErr <- r.handle.ReadAsync(r.callback(runCtx))
	}()

	r.logger.Info().Msg("acquisition started")

	var asyncErr error
	select {
	case <-runCtx.Done():
	case asyncErr = <-readErr:
		r.Stop()
		if asyncErr != nil {
			r.logger.Error().Err(asyncErr).Msg("async read ended")
		}
	}

	if err := r.handle.CancelAsync(); err != nil {
		r.logger.Warn().Err(err).Msg("error cancelling async read")
	}
	wg.Wait()

	r.logger.Info().Msg("acquisition stopped")
	return asyncErr
}

func (r *RTLSDRDevice) Close() error {
	return r.handle.Close()
}

// Descriptors lists the sticks currently attached.
func Descriptors() []device.Descriptor {
	return descriptors(DefaultDriver)
}

func descriptors(driver Driver) []device.Descriptor {
	count := driver.DeviceCount()
	ret := make([]device.Descriptor, 0, count)
	for idx := 0; idx < count; idx++ {
		manufacturer, product, serial, err := driver.USBStrings(idx)
		if err != nil {
			log.Debug().Err(err).Int("index", idx).Msg("error reading USB strings")
		}
		ret = append(ret, device.Descriptor{
			ID:           idx,
			Serial:       serial,
			Kind:         product,
			Manufacturer: manufacturer,
			Type:         Type,
		})
	}
	return ret
}
