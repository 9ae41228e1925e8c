package acquire

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Opendigitalradio/libdabdevice/pkg/channels"
	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/dsp/level"
	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/Opendigitalradio/libdabdevice/pkg/util"
	"github.com/Opendigitalradio/libdabdevice/pkg/viz"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBlockSize     = 16384
	DefaultStatsInterval = 5 * time.Second
)

// Sink consumes blocks of samples in acquisition order. Sinks are called
// from a single goroutine.
type Sink interface {
	Write(s []complex64) error
}

// Settings are applied to a device before acquisition starts.
type Settings struct {
	Frequency types.Frequency
	// Gain is ignored when AGC is set.
	Gain *types.Gain
	AGC  bool
	Loop bool
}

// Prepare tunes d and applies s. Options the device does not support are
// logged and skipped; everything else is fatal.
func Prepare(d device.Device, s Settings, logger zerolog.Logger) error {
	if !channels.InBand(s.Frequency) {
		low, high := channels.Band()
		logger.Warn().
			Str("frequency", s.Frequency.String()).
			Str("band_low", low.String()).
			Str("band_high", high.String()).
			Msg("tuning outside DAB Band III")
	}

	if err := d.Tune(s.Frequency); err != nil {
		if !errors.Is(err, device.ErrTuneMismatch) {
			return fmt.Errorf("error tuning to %s: %w", s.Frequency, err)
		}
		logger.Warn().Err(err).Msg("tuned frequency differs")
	}

	agc := device.Device.Disable
	if s.AGC {
		agc = device.Device.Enable
	}
	if err := agc(d, device.AutomaticGainControl); err != nil {
		if !errors.Is(err, device.ErrUnsupportedOption) {
			return err
		}
		if s.AGC {
			logger.Warn().Msg("device has no AGC")
		}
	}
	if !s.AGC && s.Gain != nil {
		if err := d.SetGain(*s.Gain); err != nil {
			return fmt.Errorf("error setting gain %s: %w", *s.Gain, err)
		}
	}

	if s.Loop {
		if err := d.Enable(device.Loop); err != nil {
			if !errors.Is(err, device.ErrUnsupportedOption) {
				return err
			}
			logger.Warn().Msg("device cannot loop")
		}
	}

	logger.Info().
		Str("frequency", s.Frequency.String()).
		Str("gain", d.Gain().String()).
		Bool("agc", s.AGC).
		Msg("device prepared")
	return nil
}

// Acquirer runs one device and drains its queue into sinks.
type Acquirer struct {
	device        device.Device
	deviceType    device.Type
	queue         *samples.Queue
	sinks         []Sink
	writeAPI      api.WriteAPI
	vizServer     *viz.Server
	meter         *level.Meter
	logger        zerolog.Logger
	blockSize     int
	statsInterval time.Duration
	limit         int64

	consumed atomic.Int64
	sinkTime atomic.Int64
}

type AcquirerOption func(a *Acquirer) error

func WithInfluxDB(influxClient api.WriteAPI) AcquirerOption {
	return func(a *Acquirer) error {
		a.writeAPI = influxClient
		return nil
	}
}

// WithImageServer runs vizServer alongside the device and feeds it through
// the given plotters.
func WithImageServer(vizServer *viz.Server, plotters ...interface {
	viz.Producer
	Sink
}) AcquirerOption {
	return func(a *Acquirer) error {
		a.vizServer = vizServer
		for _, p := range plotters {
			vizServer.Register(p)
			a.sinks = append(a.sinks, p)
		}
		return nil
	}
}

func WithSink(sink Sink) AcquirerOption {
	return func(a *Acquirer) error {
		a.sinks = append(a.sinks, sink)
		return nil
	}
}

func WithLogger(logger zerolog.Logger) AcquirerOption {
	return func(a *Acquirer) error {
		a.logger = logger
		return nil
	}
}

// WithLimit stops the device once n samples were consumed. Sinks see exactly
// n samples.
func WithLimit(n int64) AcquirerOption {
	return func(a *Acquirer) error {
		if n < 0 {
			return fmt.Errorf("negative sample limit %d", n)
		}
		a.limit = n
		return nil
	}
}

func WithBlockSize(n int) AcquirerOption {
	return func(a *Acquirer) error {
		if n <= 0 {
			return fmt.Errorf("block size must be positive")
		}
		a.blockSize = n
		return nil
	}
}

// WithStatsInterval sets how often stats are logged and written. Zero
// disables them.
func WithStatsInterval(interval time.Duration) AcquirerOption {
	return func(a *Acquirer) error {
		a.statsInterval = interval
		return nil
	}
}

func WithDeviceType(t device.Type) AcquirerOption {
	return func(a *Acquirer) error {
		a.deviceType = t
		return nil
	}
}

// NewAcquirer wires d, which must feed queue, to the configured sinks.
func NewAcquirer(d device.Device, queue *samples.Queue, opts ...AcquirerOption) (*Acquirer, error) {
	a := &Acquirer{
		device:        d,
		queue:         queue,
		writeAPI:      &util.NoopWriteAPI{}, // overwritten with option
		meter:         level.NewMeter(0.001),
		logger:        log.Logger,
		blockSize:     DefaultBlockSize,
		statsInterval: DefaultStatsInterval,
	}
	a.sinks = append(a.sinks, a.meter)

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if d == nil || queue == nil {
		return nil, fmt.Errorf("must specify device and queue")
	}
	return a, nil
}

// Consumed is the number of samples handed to the sinks so far.
func (a *Acquirer) Consumed() int64 {
	return a.consumed.Load()
}

// Stop ends acquisition; Run returns once the queue is drained.
func (a *Acquirer) Stop() {
	a.device.Stop()
}

// Run blocks until the device stops on its own, Stop is called, the limit is
// reached or ctx is done. Samples already queued when the device stops are
// still delivered, except on ctx cancellation.
func (a *Acquirer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	deviceDone := make(chan struct{})

	eg.Go(func() error {
		defer close(deviceDone)
		return a.device.Run(egCtx)
	})

	eg.Go(func() error {
		defer cancel()
		return a.consume(egCtx, deviceDone)
	})

	if a.statsInterval > 0 {
		eg.Go(func() error {
			return a.reportStats(egCtx)
		})
	}

	if a.vizServer != nil {
		eg.Go(func() error {
			return a.vizServer.Run(egCtx)
		})
	}

	a.logger.Info().
		Int("queue_capacity", a.queue.Cap()).
		Int64("limit", a.limit).
		Int("sinks", len(a.sinks)).
		Msg("starting acquisition")

	err := eg.Wait()
	a.writeStats()
	a.writeAPI.Flush()

	a.logger.Info().Int64("samples", a.Consumed()).Uint64("dropped", a.queue.Dropped()).Msg("acquisition finished")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Acquirer) consume(ctx context.Context, deviceDone <-chan struct{}) error {
	drainCtx, stopDraining := context.WithCancel(ctx)
	defer stopDraining()
	go func() {
		select {
		case <-deviceDone:
		case <-ctx.Done():
		}
		stopDraining()
	}()

	buf := make([]complex64, a.blockSize)
	for {
		n, err := a.queue.Dequeue(drainCtx, buf)
		done, werr := a.deliver(buf[:n])
		if werr != nil {
			a.device.Stop()
			return werr
		}
		if done {
			a.device.Stop()
			return nil
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
		// The device finished; whatever is queued is the tail of the stream.
		for {
			n := a.queue.DequeueAvailable(buf)
			if n == 0 {
				return nil
			}
			if done, werr := a.deliver(buf[:n]); werr != nil || done {
				return werr
			}
		}
	}
}

// deliver hands s to every sink, truncated to the limit, and reports whether
// the limit is reached.
func (a *Acquirer) deliver(s []complex64) (bool, error) {
	if a.limit > 0 {
		if remaining := a.limit - a.consumed.Load(); int64(len(s)) > remaining {
			s = s[:remaining]
		}
	}
	if len(s) > 0 {
		us, err := util.TimeOperationMicroseconds(func() error {
			for _, sink := range a.sinks {
				if err := sink.Write(s); err != nil {
					return err
				}
			}
			return nil
		})
		a.sinkTime.Add(us)
		if err != nil {
			return false, fmt.Errorf("error writing to sink: %w", err)
		}
		a.consumed.Add(int64(len(s)))
	}
	return a.limit > 0 && a.consumed.Load() >= a.limit, nil
}

func (a *Acquirer) reportStats(ctx context.Context) error {
	tick := time.NewTicker(a.statsInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			a.writeStats()
		}
	}
}

func (a *Acquirer) writeStats() {
	consumed := a.Consumed()
	depth := a.queue.Len()
	dropped := a.queue.Dropped()
	dbfs := a.meter.DBFS()
	peak := a.meter.Peak()
	sinkTime := a.sinkTime.Swap(0)

	a.logger.Debug().
		Int64("samples", consumed).
		Int("queue_depth", depth).
		Uint64("dropped", dropped).
		Float64("level_dbfs", dbfs).
		Float64("peak", peak).
		Int64("sink_us", sinkTime).
		Bool("running", a.device.Running()).
		Msg("stats")

	fields := map[string]interface{}{
		"samples":     consumed,
		"queue_depth": depth,
		"dropped":     dropped,
		"peak":        peak,
		"sink_us":     sinkTime,
		"running":     a.device.Running(),
	}
	// Line protocol has no representation for infinities.
	if !math.IsInf(dbfs, 0) && !math.IsNaN(dbfs) {
		fields["level_dbfs"] = dbfs
	}
	a.writeAPI.WritePoint(influxdb2.NewPoint("acquire.stats",
		map[string]string{
			"device": string(a.deviceType),
		},
		fields, time.Now()))
}
