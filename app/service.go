package app

import (
	"context"
	"fmt"

	"github.com/PercyRoc/CangFenBao-sub014/config"
	"github.com/PercyRoc/CangFenBao-sub014/core/calibration"
	coremetrics "github.com/PercyRoc/CangFenBao-sub014/core/metrics"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
	"github.com/PercyRoc/CangFenBao-sub014/core/sorting"
	"github.com/PercyRoc/CangFenBao-sub014/infra/device"
	"github.com/PercyRoc/CangFenBao-sub014/infra/logger"
	"github.com/PercyRoc/CangFenBao-sub014/infra/metrics"
	"github.com/PercyRoc/CangFenBao-sub014/infra/mqtt"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

// Service is the composition root: it wires the engine, the device
// connection manager, the MQTT collaborator bridge and the metrics sinks
// from one immutable configuration snapshot.
type Service struct {
	Engine   *sorting.Engine
	Devices  *device.Manager
	Recorder *calibration.Recorder // non-nil in calibration mode

	client      *mqtt.PahoClient
	bus         *eventbus.Bus
	sink        coremetrics.MetricsSink
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service in normal dispatch mode.
func New(cfg *config.Config) (*Service, error) {
	return build(cfg, false)
}

// NewCalibration creates a Service running the engine in calibration
// mode: no real actuation commands, delays recorded instead.
func NewCalibration(cfg *config.Config) (*Service, error) {
	return build(cfg, true)
}

func build(cfg *config.Config, calibrate bool) (*Service, error) {
	log := logger.New("service")
	bus := eventbus.New()

	endpoints := []device.Endpoint{{Name: cfg.Sorting.Trigger.Name, Addr: cfg.Sorting.Trigger.Endpoint}}
	for _, s := range cfg.Sorting.Sorts {
		endpoints = append(endpoints, device.Endpoint{Name: s.Name, Addr: s.Endpoint})
	}

	var eng *sorting.Engine
	mgr, err := device.NewManager(cfg.Devices, endpoints, func(ev model.TriggerEvent) {
		eng.HandleTrigger(ev)
	}, bus, log)
	if err != nil {
		return nil, fmt.Errorf("device manager: %w", err)
	}
	eng, err = sorting.NewEngine(cfg.Sorting, sorting.SystemClock{}, mgr, bus, log)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{
		Engine:      eng,
		Devices:     mgr,
		bus:         bus,
		log:         log,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if calibrate {
		svc.Recorder = calibration.NewRecorder()
		eng.EnableCalibration(svc.Recorder)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	if len(sinks) == 1 {
		svc.sink = sinks[0]
	} else if len(sinks) > 1 {
		svc.sink = metrics.NewMultiSink(sinks...)
	}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
	} else {
		log.Warnf("no MQTT broker configured, collaborator bridge disabled")
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		s.Engine.Run(ctx)
	}()
	s.Devices.Start(ctx)
	if s.sink != nil {
		metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	if s.client != nil {
		mqtt.StartEgress(ctx, s.bus, s.client, s.log)
		if s.Recorder == nil {
			err := s.client.SubscribePackages(func(m mqtt.PackageMessage) {
				if err := s.Engine.Enqueue(m.PackageID, m.Chute); err != nil {
					s.log.Errorf("enqueue %s: %v", m.PackageID, err)
				}
			})
			if err != nil {
				return fmt.Errorf("subscribe packages: %w", err)
			}
		}
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	<-engineDone
	s.Devices.Close()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	s.bus.Close()
	return nil
}
