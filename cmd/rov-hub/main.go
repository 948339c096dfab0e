package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/rov-hub/internal/server"
	"github.com/benmeehan/rov-hub/internal/service_registry"
	"github.com/benmeehan/rov-hub/internal/utils"
	"github.com/benmeehan/rov-hub/pkg/file"
	"github.com/benmeehan/rov-hub/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "rov-hub",
		Short: "ROV telemetry hub",
		Long: `rov-hub receives telemetry from ROV devices, keeps their latest state,
streams live events to dashboards and serves firmware manifests.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/rov-hub/config.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the hub version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return rootCmd
}

func run(cfgFile string) error {
	config, err := utils.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}

	logger, err := utils.NewLogger(os.Stdout, config.Logging.Level, config.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return err
	}

	if config.Ingest.APIKey == utils.DefaultAPIKey {
		logger.Warn().Msg("Ingest API key is the default placeholder; set INGEST_API_KEY")
	}

	fileClient := file.NewFileService()

	hub, err := server.NewHub(config, fileClient, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize hub")
		return err
	}

	serviceRegistry := service_registry.NewServiceRegistry(logger)
	err = serviceRegistry.RegisterServices(config, service_registry.Dependencies{
		Handler:    hub.Handler(),
		Ingester:   hub.Ingest,
		OnShutdown: hub.Bus.Close,
		NewMQTTClient: func() (mqtt.MQTTClient, error) {
			// Unique per process so parallel hubs do not kick each other off the broker.
			clientID := config.MQTT.ClientID + "-" + uuid.New().String()
			mqttClient := mqtt.NewMqttService(fileClient, logger.With().Str("component", "mqtt").Logger())
			err := mqttClient.Initialize(mqtt.ConnectionOptions{
				Broker:        config.MQTT.Broker,
				ClientID:      clientID,
				CACertificate: config.MQTT.CACertificate,
				Username:      config.MQTT.Username,
				Password:      config.MQTT.Password,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to initialize MQTT connection: %w", err)
			}
			return mqttClient, nil
		},
	})
	if err != nil {
		_ = hub.Close()
		return err
	}

	if err := serviceRegistry.StartServices(); err != nil {
		_ = hub.Close()
		return err
	}
	logger.Info().Strs("services", serviceRegistry.ServiceNames()).Msg("All services started successfully")

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopCh

	logger.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	stopErr := serviceRegistry.StopServices()
	if err := hub.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close hub")
		return err
	}
	return stopErr
}
