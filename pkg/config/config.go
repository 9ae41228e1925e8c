package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Opendigitalradio/libdabdevice/pkg/channels"
	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Device            string   `yaml:"device"`
	RTLSDRDeviceIndex int      `yaml:"rtlsdr_device_index"`
	PlaybackLocation  string   `yaml:"playback_location"`
	// PlaybackRate paces file replay in samples per second; zero replays as
	// fast as the consumer keeps up.
	PlaybackRate      int      `yaml:"playback_rate"`
	RecordLocation    string   `yaml:"record_location"`
	SampleRate        int      `yaml:"sample_rate"`
	InitialGain       *float32 `yaml:"initial_gain"`

	// Channel takes precedence over CenterFreq.
	Channel    string `yaml:"channel"`
	CenterFreq int    `yaml:"center_freq"`

	AGC  bool `yaml:"agc"`
	Loop bool `yaml:"loop"`

	QueueCapacity int `yaml:"queue_capacity"`
	// Samples bounds an acquisition; zero runs until interrupted.
	Samples       int64         `yaml:"samples"`
	StatsInterval time.Duration `yaml:"stats_interval"`

	VizServer struct {
		Port           int           `yaml:"port"`
		UpdateInterval time.Duration `yaml:"update_interval"`
		FFTBins        int           `yaml:"fft_bins"`
	} `yaml:"viz_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

func Default() Config {
	var c Config
	c.Device = "rtlsdr"
	c.SampleRate = 2048000
	c.Channel = "12C"
	c.StatsInterval = 5 * time.Second
	c.VizServer.UpdateInterval = 250 * time.Millisecond
	c.VizServer.FFTBins = 1024
	return c
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	c := Default()

	contents, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("error unmarshaling config file: %w", err)
	}
	if c.PlaybackLocation != "" {
		c.Device = "file"
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Device {
	case "rtlsdr", "hackrf":
	case "file":
		if c.PlaybackLocation == "" {
			return fmt.Errorf("file device needs playback_location")
		}
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}
	if c.SampleRate < 0 || c.PlaybackRate < 0 || c.QueueCapacity < 0 || c.Samples < 0 {
		return fmt.Errorf("rates, queue_capacity and samples must not be negative")
	}
	if _, err := c.Frequency(); err != nil {
		return err
	}
	return nil
}

// Frequency resolves Channel or CenterFreq to a tuning target.
func (c Config) Frequency() (types.Frequency, error) {
	if c.Channel != "" {
		return channels.Frequency(c.Channel)
	}
	if c.CenterFreq <= 0 {
		return types.Frequency{}, fmt.Errorf("either channel or center_freq is required")
	}
	return types.CheckedHz(float64(c.CenterFreq))
}

// DeviceConfig is what device.Open needs from c.
func (c Config) DeviceConfig(logger zerolog.Logger) device.Config {
	cfg := device.Config{
		Index:       c.RTLSDRDeviceIndex,
		Path:        c.PlaybackLocation,
		SampleRate:  c.SampleRate,
		InitialGain: c.InitialGain,
		Logger:      &logger,
	}
	if c.Device == "file" {
		cfg.SampleRate = c.PlaybackRate
	}
	return cfg
}
