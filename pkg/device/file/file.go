package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	Type device.Type = "file"

	// DefaultChunkSize is the number of samples read and enqueued per step.
	DefaultChunkSize = 16384
)

var (
	ErrOpen     = errors.New("error opening capture file")
	ErrTooShort = errors.New("capture file holds less than one sample")
)

// Kind registers the file replay implementation with the device helpers.
// File devices cannot be enumerated.
var Kind = device.Kind{
	Type: Type,
	Open: func(queue *samples.Queue, cfg device.Config) (device.Device, error) {
		opts := []FileOption{}
		if cfg.SampleRate > 0 {
			opts = append(opts, WithSampleRate(cfg.SampleRate))
		}
		if cfg.Logger != nil {
			opts = append(opts, WithLogger(*cfg.Logger))
		}
		return NewFileDevice(queue, cfg.Path, opts...)
	},
}

// FileDevice replays an rtl_sdr style dump of interleaved unsigned 8-bit I/Q
// pairs.
type FileDevice struct {
	device.Lifecycle

	path      string
	readFile  *os.File
	reader    *bufio.Reader
	chunkSize int
	// sampleRate paces replay when non-zero.
	sampleRate int
	loop       atomic.Bool

	queue  *samples.Queue
	logger zerolog.Logger
}

type FileOption func(f *FileDevice)

// WithSampleRate replays at roughly rate samples per second instead of as
// fast as the file can be read.
func WithSampleRate(rate int) FileOption {
	return func(f *FileDevice) {
		f.sampleRate = rate
	}
}

func WithChunkSize(size int) FileOption {
	return func(f *FileDevice) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}

func WithLogger(logger zerolog.Logger) FileOption {
	return func(f *FileDevice) {
		f.logger = logger
	}
}

func NewFileDevice(queue *samples.Queue, path string, opts ...FileOption) (*FileDevice, error) {
	f := &FileDevice{
		path:      path,
		chunkSize: DefaultChunkSize,
		queue:     queue,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With().Str("device", string(Type)).Str("path", path).Logger()

	readFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, path, err)
	}

	info, err := readFile.Stat()
	if err != nil {
		readFile.Close()
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, path, err)
	}
	if info.Size() < 2 {
		readFile.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooShort, path, info.Size())
	}

	f.readFile = readFile
	f.reader = bufio.NewReaderSize(readFile, f.chunkSize*2)

	f.logger.Debug().Int64("size", info.Size()).Msg("capture file opened")
	return f, nil
}

func (f *FileDevice) Tune(types.Frequency) error { return nil }

func (f *FileDevice) SetGain(types.Gain) error { return nil }

func (f *FileDevice) Gain() types.Gain { return types.DB(0) }

func (f *FileDevice) Gains() []types.Gain { return nil }

func (f *FileDevice) Enable(opt device.Option) error {
	if opt != device.Loop {
		return device.ErrUnsupportedOption
	}
	f.loop.Store(true)
	return nil
}

func (f *FileDevice) Disable(opt device.Option) error {
	if opt != device.Loop {
		return device.ErrUnsupportedOption
	}
	f.loop.Store(false)
	return nil
}

func (f *FileDevice) rewind() error {
	if _, err := f.readFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	f.reader.Reset(f.readFile)
	return nil
}

// Run replays the file into the queue until Stop, ctx cancellation or, with
// looping disabled, the end of the file. A later Run resumes where the
// previous one left off.
func (f *FileDevice) Run(ctx context.Context) error {
	runCtx, err := f.Begin(ctx)
	if err != nil {
		return err
	}
	defer f.End()

	var tick <-chan time.Time
	if f.sampleRate > 0 {
		interval := time.Duration(float64(f.chunkSize) / float64(f.sampleRate) * float64(time.Second))
		if interval < time.Nanosecond {
			interval = time.Nanosecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	f.logger.Info().Bool("loop", f.loop.Load()).Int("sample_rate", f.sampleRate).Msg("replay started")
	defer f.logger.Info().Msg("replay stopped")

	raw := make([]byte, f.chunkSize*2)
	out := make([]complex64, f.chunkSize)

	for {
		select {
		case <-runCtx.Done():
			return nil
		default:
		}
		if tick != nil {
			select {
			case <-runCtx.Done():
				return nil
			case <-tick:
			}
		}

		n, err := io.ReadFull(f.reader, raw)
		if count := samples.NormalizeBuffer(raw[:n], out); count > 0 {
			if err := f.queue.Enqueue(runCtx, out[:count]...); err != nil {
				return nil
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if !f.loop.Load() {
				f.logger.Debug().Msg("end of file")
				f.Stop()
				continue
			}
			if err := f.rewind(); err != nil {
				f.Stop()
				return fmt.Errorf("error rewinding %s: %w", f.path, err)
			}
		default:
			f.Stop()
			return fmt.Errorf("error reading %s: %w", f.path, err)
		}
	}
}

func (f *FileDevice) Close() error {
	return f.readFile.Close()
}
