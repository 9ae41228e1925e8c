package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Opendigitalradio/libdabdevice/pkg/config"
	"github.com/Opendigitalradio/libdabdevice/pkg/device/file"
	"github.com/rs/zerolog"
)

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c config.Config)
	}{
		{
			name: "defaults untouched",
			args: nil,
			check: func(t *testing.T, c config.Config) {
				if c.Device != "rtlsdr" || c.Channel != "12C" || c.InitialGain != nil {
					t.Errorf("config %+v", c)
				}
			},
		},
		{
			name: "playback implies file device",
			args: []string{"--playback", "in.iq8", "--loop", "-n", "1000"},
			check: func(t *testing.T, c config.Config) {
				if c.Device != "file" || c.PlaybackLocation != "in.iq8" || !c.Loop || c.Samples != 1000 {
					t.Errorf("config %+v", c)
				}
			},
		},
		{
			name: "frequency replaces channel",
			args: []string{"-f", "227.36", "-g", "29.7", "--agc"},
			check: func(t *testing.T, c config.Config) {
				if c.Channel != "" || c.CenterFreq != 227360000 || !c.AGC {
					t.Errorf("config %+v", c)
				}
				if c.InitialGain == nil || *c.InitialGain != 29.7 {
					t.Errorf("gain %v", c.InitialGain)
				}
				if err := c.Validate(); err != nil {
					t.Errorf("Validate() err = %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := dumpCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			c := config.Default()
			if err := applyFlags(cmd, &c); err != nil {
				t.Fatalf("applyFlags() err = %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestApplyFlagsRejectsFrequency(t *testing.T) {
	for _, arg := range []string{"5000", "-1", "0"} {
		t.Run(arg, func(t *testing.T) {
			cmd := dumpCmd()
			if err := cmd.ParseFlags([]string{"--frequency=" + arg}); err != nil {
				t.Fatal(err)
			}
			c := config.Default()
			if err := applyFlags(cmd, &c); err == nil {
				t.Errorf("accepted --frequency %s as %d Hz", arg, c.CenterFreq)
			}
			if c.Channel != "12C" || c.CenterFreq != 0 {
				t.Errorf("rejected flag changed config: %+v", c)
			}
		})
	}
}

type closeFailingDevice struct {
	file.FileDevice
}

func (*closeFailingDevice) Close() error { return errors.New("usb gone") }

func TestCloseDeviceLogsError(t *testing.T) {
	var buf bytes.Buffer
	closeDevice(&closeFailingDevice{}, zerolog.New(&buf))
	if !strings.Contains(buf.String(), "usb gone") || !strings.Contains(buf.String(), "error closing device") {
		t.Errorf("close error not logged: %q", buf.String())
	}
}
