package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/rov-hub/internal/relay"
	"github.com/benmeehan/rov-hub/internal/utils"
	"github.com/benmeehan/rov-hub/pkg/file"
	"github.com/benmeehan/rov-hub/pkg/location"
	"github.com/benmeehan/rov-hub/pkg/telemetryclient"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile   string
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:          "gps-relay",
		Short:        "Relay NMEA GPS fixes to the ROV telemetry hub",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgFile, logLevel, logFormat)
		},
	}
	rootCmd.Flags().StringVar(&cfgFile, "config", "configs/gps-relay.yaml", "relay config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "console", "log format: json or console")

	return rootCmd
}

func run(cfgFile, logLevel, logFormat string) error {
	logger, err := utils.NewLogger(os.Stderr, logLevel, logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return err
	}

	config, err := relay.LoadConfig(cfgFile, file.NewFileService())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	var source location.Source
	switch config.Source.Type {
	case relay.SourceUDP:
		source = location.NewUDPSource(config.Source.Listen)
	default:
		source = location.NewSerialSource(config.Source.Port, config.Source.BaudRate)
	}

	client := telemetryclient.NewClient(config.HubURL, config.APIKey, config.Timeout)
	r := relay.NewRelay(config.DeviceID, config.Interval, source, client, logger)

	if err := r.Start(); err != nil {
		return err
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	return r.Stop()
}
