package device

import (
	"fmt"

	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
)

// Config carries the constructor arguments of every device kind. Each kind
// reads the fields it understands and ignores the rest.
type Config struct {
	// Index selects the physical device for USB kinds.
	Index int `yaml:"index"`
	// Path is the capture file replayed by the file kind.
	Path string `yaml:"path"`
	// SampleRate in samples per second. Zero picks the kind's default; for
	// the file kind zero means unpaced replay.
	SampleRate int `yaml:"sample_rate"`
	// InitialGain, when set, replaces the kind's default operating gain.
	InitialGain *float32 `yaml:"initial_gain"`

	Logger *zerolog.Logger `yaml:"-"`
}

// Gain returns InitialGain as a types.Gain.
func (c Config) Gain() (types.Gain, bool) {
	if c.InitialGain == nil {
		return types.Gain{}, false
	}
	return types.DB(*c.InitialGain), true
}

// Kind bundles what the generic helpers need to know about one device
// implementation.
type Kind struct {
	Type        Type
	Descriptors func() []Descriptor
	Open        func(queue *samples.Queue, cfg Config) (Device, error)
}

// Open builds a device of the given kind feeding queue. The caller owns the
// returned device and must Close it.
func Open(kind Kind, queue *samples.Queue, cfg Config) (Device, error) {
	if kind.Open == nil {
		return nil, fmt.Errorf("device kind %q cannot be opened", kind.Type)
	}
	return kind.Open(queue, cfg)
}

// Descriptors lists the devices of every given kind, in argument order. A
// kind passed twice is listed twice.
func Descriptors(kinds ...Kind) []Descriptor {
	var ret []Descriptor
	for _, kind := range kinds {
		if kind.Descriptors == nil {
			continue
		}
		ret = append(ret, kind.Descriptors()...)
	}
	return ret
}
