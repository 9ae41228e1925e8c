package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Opendigitalradio/libdabdevice/pkg/acquire"
	"github.com/Opendigitalradio/libdabdevice/pkg/capture"
	"github.com/Opendigitalradio/libdabdevice/pkg/config"
	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/Opendigitalradio/libdabdevice/pkg/viz"
	influxdb2 "github.com/influxdata/influxdb-client-go"
)

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [flags] output.iq8",
		Short: "Write raw u8 I/Q from a device to a file",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := loadConfig()
			if err := applyFlags(cmd, &c); err != nil {
				log.Fatal().Err(err).Msg("invalid flags")
			}
			if len(args) == 1 {
				c.RecordLocation = args[0]
			}
			if err := c.Validate(); err != nil {
				log.Fatal().Err(err).Msg("invalid configuration")
			}
			if c.RecordLocation == "" {
				log.Fatal().Msg("no output file given")
			}
			dump(c)
		},
	}

	flags := cmd.Flags()
	flags.StringP("device", "d", "", "Device type: rtlsdr, hackrf or file")
	flags.IntP("index", "i", 0, "RTL-SDR device index")
	flags.StringP("playback", "p", "", "Replay this capture file instead of a radio")
	flags.StringP("channel", "C", "", "DAB channel to tune to, e.g. 12C")
	flags.Float64P("frequency", "f", 0, "Center frequency in MHz, instead of a channel")
	flags.Float32P("gain", "g", 0, "Tuner gain in dB")
	flags.Bool("agc", false, "Enable automatic gain control")
	flags.Bool("loop", false, "Loop the playback file")
	flags.Int64P("samples", "n", 0, "Stop after this many samples")
	flags.Int("viz-port", 0, "Serve spectrum plots on this port")
	return cmd
}

// applyFlags overrides c with every flag set on the command line. The flags
// were registered with matching types, so lookup errors cannot happen.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("device") {
		c.Device, _ = flags.GetString("device")
	}
	if flags.Changed("index") {
		c.RTLSDRDeviceIndex, _ = flags.GetInt("index")
	}
	if flags.Changed("playback") {
		c.PlaybackLocation, _ = flags.GetString("playback")
		c.Device = "file"
	}
	if flags.Changed("channel") {
		c.Channel, _ = flags.GetString("channel")
	}
	if flags.Changed("frequency") {
		mhz, _ := flags.GetFloat64("frequency")
		freq, err := types.CheckedMHz(mhz)
		if err != nil || freq.Hertz() == 0 {
			return fmt.Errorf("invalid --frequency %g MHz: %v", mhz, err)
		}
		c.Channel = ""
		c.CenterFreq = int(freq.Hertz())
	}
	if flags.Changed("gain") {
		gain, _ := flags.GetFloat32("gain")
		c.InitialGain = &gain
	}
	if flags.Changed("agc") {
		c.AGC, _ = flags.GetBool("agc")
	}
	if flags.Changed("loop") {
		c.Loop, _ = flags.GetBool("loop")
	}
	if flags.Changed("samples") {
		c.Samples, _ = flags.GetInt64("samples")
	}
	if flags.Changed("viz-port") {
		c.VizServer.Port, _ = flags.GetInt("viz-port")
	}
	return nil
}

func closeDevice(dev device.Device, logger zerolog.Logger) {
	if err := dev.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing device")
	}
}

func dump(c config.Config) {
	logger := log.Logger.With().Str("device", c.Device).Logger()

	freq, err := c.Frequency()
	if err != nil {
		log.Fatal().Err(err).Msg("no frequency")
	}

	queue := samples.NewQueue(c.QueueCapacity)

	logger.Info().Msg("initializing device...")
	dev, err := device.Open(kinds[c.Device], queue, c.DeviceConfig(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize device")
	}
	defer closeDevice(dev, logger)

	settings := acquire.Settings{Frequency: freq, AGC: c.AGC, Loop: c.Loop}
	if g, ok := c.DeviceConfig(logger).Gain(); ok {
		settings.Gain = &g
	}
	if err := acquire.Prepare(dev, settings, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare device")
	}

	out, err := capture.Create(c.RecordLocation)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.RecordLocation).Msg("error creating output file")
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Error().Err(err).Msg("error closing output file")
		}
		log.Info().Int64("samples", out.Samples()).Str("path", c.RecordLocation).Msg("capture written")
	}()

	opts := []acquire.AcquirerOption{
		acquire.WithSink(out),
		acquire.WithLimit(c.Samples),
		acquire.WithStatsInterval(c.StatsInterval),
		acquire.WithDeviceType(device.Type(c.Device)),
		acquire.WithLogger(log.Logger),
	}
	if c.InfluxDB.Host != "" {
		client := influxdb2.NewClient(c.InfluxDB.Host, "")
		defer client.Close()
		opts = append(opts, acquire.WithInfluxDB(client.WriteAPI(c.InfluxDB.Organization, c.InfluxDB.Bucket)))
	}
	if c.VizServer.Port != 0 {
		sampleRate := c.SampleRate
		if c.Device == "file" && c.PlaybackRate > 0 {
			sampleRate = c.PlaybackRate
		}
		vizServer := viz.NewServer(c.VizServer.Port, c.VizServer.UpdateInterval)
		opts = append(opts, acquire.WithImageServer(vizServer,
			viz.NewSpectrumPlotter("spectrum", c.VizServer.FFTBins, sampleRate, freq),
			viz.NewConstellationPlotter("constellation", 2048),
		))
	}

	acquirer, err := acquire.NewAcquirer(dev, queue, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create acquirer")
	}

	eg, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("interrupted, draining queue")
		case <-ctx.Done():
		}
		acquirer.Stop()
		return nil
	})

	eg.Go(func() error {
		defer cancel()
		return acquirer.Run(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("acquisition failed")
	}
}
