package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Opendigitalradio/libdabdevice/pkg/channels"
	"github.com/Opendigitalradio/libdabdevice/pkg/config"
	"github.com/Opendigitalradio/libdabdevice/pkg/device"
	"github.com/Opendigitalradio/libdabdevice/pkg/device/file"
	"github.com/Opendigitalradio/libdabdevice/pkg/device/hackrf"
	"github.com/Opendigitalradio/libdabdevice/pkg/device/rtlsdr"
)

var kinds = map[string]device.Kind{
	string(rtlsdr.Type): rtlsdr.Kind,
	string(hackrf.Type): hackrf.Kind,
	string(file.Type):   file.Kind,
}

var (
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "dabdevice",
	Short: "Acquire raw DAB I/Q samples from SDR receivers and capture files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List attached receivers",
		Run: func(cmd *cobra.Command, args []string) {
			descriptors := device.Descriptors(rtlsdr.Kind, hackrf.Kind)
			if len(descriptors) == 0 {
				log.Warn().Msg("no devices found")
				return
			}
			for _, d := range descriptors {
				fmt.Println(d)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "channels",
		Short: "Print the DAB Band III channel table",
		Run: func(cmd *cobra.Command, args []string) {
			for _, ch := range channels.All() {
				fmt.Printf("%-4s %10d Hz  %s\n", ch.Name, ch.Center.Hertz(), ch.Center)
			}
			low, high := channels.Band()
			fmt.Printf("Band III centers span %s to %s\n", low, high)
		},
	})

	rootCmd.AddCommand(dumpCmd())
}

func loadConfig() config.Config {
	if configFile == "" {
		return config.Default()
	}
	c, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", configFile).Msg("error loading config")
	}
	return c
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
