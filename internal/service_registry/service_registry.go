package service_registry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/benmeehan/rov-hub/internal/services"
	"github.com/benmeehan/rov-hub/internal/utils"
	"github.com/benmeehan/rov-hub/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Dependencies are the shared components services are built from.
type Dependencies struct {
	Handler  http.Handler
	Ingester services.TelemetryIngester

	// OnShutdown runs when the HTTP server starts shutting down.
	OnShutdown func()

	// NewMQTTClient connects the MQTT client; only called when the bridge is enabled.
	NewMQTTClient func() (mqtt.MQTTClient, error)
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new, empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// ServiceNames returns the registered service names in start order.
func (sr *ServiceRegistry) ServiceNames() []string {
	names := make([]string, len(sr.serviceKeys))
	copy(names, sr.serviceKeys)
	return names
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
// The HTTP server is registered first so it is stopped last.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deps Dependencies) error {
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (Service, error)
	}{
		{
			name:    "http",
			enabled: true,
			constructor: func() (Service, error) {
				svc := services.NewHTTPService(
					config.Server.Addr(),
					deps.Handler,
					config.Server.ReadTimeout,
					config.Server.IdleTimeout,
					config.Server.ShutdownTimeout,
					sr.Logger,
				)
				if deps.OnShutdown != nil {
					svc.OnShutdown(deps.OnShutdown)
				}
				return svc, nil
			},
		},
		{
			name:    "mqtt-ingest",
			enabled: config.MQTT.Enabled,
			constructor: func() (Service, error) {
				if deps.NewMQTTClient == nil {
					return nil, errors.New("no MQTT client factory configured")
				}
				client, err := deps.NewMQTTClient()
				if err != nil {
					return nil, err
				}
				return services.NewMQTTIngestService(
					config.MQTT.Topic,
					config.MQTT.QOS,
					client,
					deps.Ingester,
					sr.Logger,
				), nil
			},
		},
	}

	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if !svc.enabled {
			continue
		}
		serviceInstance, err := svc.constructor()
		if err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
			return fmt.Errorf("failed to create %s service: %w", svc.name, err)
		}
		sr.RegisterService(svc.name, serviceInstance)
		registeredServices = append(registeredServices, svc.name)
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
