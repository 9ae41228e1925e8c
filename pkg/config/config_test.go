package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dabdevice.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
device: rtlsdr
rtlsdr_device_index: 1
sample_rate: 1024000
initial_gain: 29.7
channel: 11d
agc: true
queue_capacity: 4096
stats_interval: 1s
viz_server:
  port: 8080
  update_interval: 100ms
influxdb:
  host: http://localhost:8086
  organization: radio
  bucket: dab
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if c.RTLSDRDeviceIndex != 1 || c.SampleRate != 1024000 || !c.AGC || c.QueueCapacity != 4096 {
		t.Errorf("config = %+v", c)
	}
	if c.InitialGain == nil || *c.InitialGain != 29.7 {
		t.Errorf("initial gain = %v", c.InitialGain)
	}
	if c.StatsInterval != time.Second || c.VizServer.UpdateInterval != 100*time.Millisecond {
		t.Errorf("intervals %v, %v", c.StatsInterval, c.VizServer.UpdateInterval)
	}
	if c.VizServer.FFTBins != 1024 {
		t.Errorf("default fft bins lost: %d", c.VizServer.FFTBins)
	}
	if c.InfluxDB.Bucket != "dab" {
		t.Errorf("influx = %+v", c.InfluxDB)
	}

	f, err := c.Frequency()
	if err != nil || f != types.KHz(222064) {
		t.Errorf("Frequency() = %v, %v", f, err)
	}

	dc := c.DeviceConfig(zerolog.Nop())
	if dc.Index != 1 || dc.SampleRate != 1024000 || dc.Logger == nil {
		t.Errorf("device config = %+v", dc)
	}
	if g, ok := dc.Gain(); !ok || g != types.DB(29.7) {
		t.Errorf("device gain = %v", g)
	}
}

func TestLoadPlayback(t *testing.T) {
	c, err := Load(writeConfig(t, "playback_location: /tmp/capture.raw\nplayback_rate: 2048000\ncenter_freq: 227360000\nchannel: \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Device != "file" {
		t.Errorf("device = %q", c.Device)
	}
	f, err := c.Frequency()
	if err != nil || f.Hertz() != 227360000 {
		t.Errorf("Frequency() = %v, %v", f, err)
	}
	dc := c.DeviceConfig(zerolog.Nop())
	if dc.Path != "/tmp/capture.raw" || dc.SampleRate != 2048000 {
		t.Errorf("device config = %+v", dc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown device", func(c *Config) { c.Device = "soapy" }},
		{"file without path", func(c *Config) { c.Device = "file" }},
		{"unknown channel", func(c *Config) { c.Channel = "14Z" }},
		{"no frequency", func(c *Config) { c.Channel = "" }},
		{"center_freq beyond uint32", func(c *Config) { c.Channel = ""; c.CenterFreq = 5000000000 }},
		{"negative samples", func(c *Config) { c.Samples = -1 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "device: [")); err == nil {
		t.Errorf("expected error for malformed yaml")
	}
}

func TestFrequencyOutOfRange(t *testing.T) {
	c := Default()
	c.Channel = ""
	c.CenterFreq = 5000000000

	f, err := c.Frequency()
	if !errors.Is(err, types.ErrFrequencyRange) {
		t.Errorf("Frequency() = %v, %v; want ErrFrequencyRange", f, err)
	}
}
