package hackrf

import (
	"context"
	"errors"
	"fmt"

	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	Type device.Type = "hackrf"

	DefaultSampleRate = 2048000
	DefaultVGAGain    = 20
)

var (
	ErrOpen       = errors.New("error opening HackRF")
	ErrSampleRate = errors.New("error setting sample rate")
	ErrGain       = errors.New("error setting gain")
)

// lnaGains are the steps of the RX LNA, in dB.
var lnaGains = []types.Gain{types.DB(0), types.DB(8), types.DB(16), types.DB(24), types.DB(32), types.DB(40)}

var Kind = device.Kind{
	Type:        Type,
	Descriptors: Descriptors,
	Open: func(queue *samples.Queue, cfg device.Config) (device.Device, error) {
		opts := []HackRFOption{}
		if cfg.SampleRate > 0 {
			opts = append(opts, WithSampleRate(cfg.SampleRate))
		}
		if g, ok := cfg.Gain(); ok {
			opts = append(opts, WithInitialGain(g))
		}
		if cfg.Logger != nil {
			opts = append(opts, WithLogger(*cfg.Logger))
		}
		return NewHackRFDevice(queue, opts...)
	},
}

// HackRFDevice receives signed 8-bit I/Q from the first attached HackRF.
// Gain control maps onto the LNA; the VGA stays at a fixed setting.
type HackRFDevice struct {
	device.Lifecycle

	radio   Radio
	release func() error

	sampleRate int
	vgaGain    int
	amp        bool
	gain       types.Gain

	queue  *samples.Queue
	logger zerolog.Logger
	// Only the transfer thread touches sampleBuffer.
	sampleBuffer []complex64
}

type HackRFOption func(h *HackRFDevice)

// WithRadio bypasses libhackrf, e.g. to drive the device from a test.
func WithRadio(radio Radio) HackRFOption {
	return func(h *HackRFDevice) {
		h.radio = radio
	}
}

func WithSampleRate(rate int) HackRFOption {
	return func(h *HackRFDevice) {
		h.sampleRate = rate
	}
}

func WithInitialGain(g types.Gain) HackRFOption {
	return func(h *HackRFDevice) {
		h.gain, _ = device.NearestGain(lnaGains, g)
	}
}

func WithVGAGain(db int) HackRFOption {
	return func(h *HackRFDevice) {
		h.vgaGain = db
	}
}

func WithAmp(on bool) HackRFOption {
	return func(h *HackRFDevice) {
		h.amp = on
	}
}

func WithLogger(logger zerolog.Logger) HackRFOption {
	return func(h *HackRFDevice) {
		h.logger = logger
	}
}

func NewHackRFDevice(queue *samples.Queue, opts ...HackRFOption) (*HackRFDevice, error) {
	h := &HackRFDevice{
		sampleRate: DefaultSampleRate,
		vgaGain:    DefaultVGAGain,
		amp:        true,
		gain:       lnaGains[len(lnaGains)/2],
		queue:      queue,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With().Str("device", string(Type)).Logger()

	if h.radio == nil {
		radio, release, err := openRadio()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		h.radio = radio
		h.release = release
	}

	if err := h.init(); err != nil {
		if cerr := h.Close(); cerr != nil {
			h.logger.Warn().Err(cerr).Msg("error closing device after failed init")
		}
		return nil, err
	}

	h.logger.Debug().
		Int("sample_rate", h.sampleRate).
		Str("lna_gain", h.gain.String()).
		Int("vga_gain", h.vgaGain).
		Bool("amp", h.amp).
		Msg("device initialized")
	return h, nil
}

func (h *HackRFDevice) init() error {
	if err := h.radio.SetSampleRateManual(h.sampleRate*2, 2); err != nil {
		return fmt.Errorf("%w to %d: %v", ErrSampleRate, h.sampleRate, err)
	}
	if err := h.radio.SetBasebandFilterBandwidth(h.sampleRate); err != nil {
		return fmt.Errorf("%w: baseband filter: %v", ErrSampleRate, err)
	}
	if err := h.radio.SetLNAGain(int(h.gain.Decibels())); err != nil {
		return fmt.Errorf("%w: LNA: %v", ErrGain, err)
	}
	if err := h.radio.SetVGAGain(h.vgaGain); err != nil {
		return fmt.Errorf("%w: VGA: %v", ErrGain, err)
	}
	if err := h.radio.SetAmpEnable(h.amp); err != nil {
		return fmt.Errorf("%w: amp: %v", ErrGain, err)
	}
	return nil
}

// Tune cannot read the frequency back, so success means the board accepted
// it.
func (h *HackRFDevice) Tune(centerFreq types.Frequency) error {
	return h.radio.SetFreq(uint64(centerFreq.Hertz()))
}

func (h *HackRFDevice) SetGain(g types.Gain) error {
	closest, _ := device.NearestGain(lnaGains, g)
	if err := h.radio.SetLNAGain(int(closest.Decibels())); err != nil {
		return err
	}
	h.gain = closest
	return nil
}

func (h *HackRFDevice) Gain() types.Gain {
	return h.gain
}

func (h *HackRFDevice) Gains() []types.Gain {
	ret := make([]types.Gain, len(lnaGains))
	copy(ret, lnaGains)
	return ret
}

func (h *HackRFDevice) Enable(device.Option) error  { return device.ErrUnsupportedOption }
func (h *HackRFDevice) Disable(device.Option) error { return device.ErrUnsupportedOption }

func (h *HackRFDevice) callback(ctx context.Context, failed chan<- error) func(buf []byte) error {
	return func(buf []byte) error {
		if cap(h.sampleBuffer) < len(buf)/2 {
			h.sampleBuffer = make([]complex64, len(buf)/2)
		}
		n := samples.NormalizeBufferCS8(buf, h.sampleBuffer[:len(buf)/2])
		if err := h.queue.Enqueue(ctx, h.sampleBuffer[:n]...); err != nil {
			select {
			case failed <- err:
			default:
			}
			return err
		}
		return nil
	}
}

func (h *HackRFDevice) Run(ctx context.Context) error {
	runCtx, err := h.Begin(ctx)
	if err != nil {
		return err
	}
	defer h.End()

	failed := make(chan error, 1)
	if err := h.radio.StartRX(h.callback(runCtx, failed)); err != nil {
		return fmt.Errorf("error starting rx: %w", err)
	}
	h.logger.Info().Msg("acquisition started")

	select {
	case <-runCtx.Done():
	case err := <-failed:
		h.logger.Debug().Err(err).Msg("callback ended streaming")
	}

	if err := h.radio.StopRX(); err != nil {
		h.logger.Warn().Err(err).Msg("error stopping rx")
	}
	h.logger.Info().Msg("acquisition stopped")
	return nil
}

func (h *HackRFDevice) Close() error {
	err := h.radio.Close()
	if h.release != nil {
		if rerr := h.release(); rerr != nil && err == nil {
			err = rerr
		}
		h.release = nil
	}
	return err
}

// Descriptors reports the first attached board, if any. libhackrf offers no
// USB string query, so the entry is generic.
func Descriptors() []device.Descriptor {
	radio, release, err := openRadio()
	if err != nil {
		log.Debug().Err(err).Msg("no HackRF found")
		return nil
	}
	defer release()
	if err := radio.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing HackRF after enumeration")
	}
	return []device.Descriptor{{
		ID:           0,
		Kind:         "HackRF One",
		Manufacturer: "Great Scott Gadgets",
		Type:         Type,
	}}
}
