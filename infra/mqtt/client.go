package mqtt

import (
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
	"github.com/PercyRoc/CangFenBao-sub014/infra/logger"
)

// pahoClient is the subset of the Paho client the adapter needs;
// narrowing it keeps the client testable.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoClient bridges the engine to the identification collaborator over
// MQTT: identification events in, package reports and device status out.
type PahoClient struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	handler func(PackageMessage)
}

// NewPahoClient connects to the MQTT broker. The handler, when set via
// SubscribePackages, receives every decoded identification event.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	pc := &PahoClient{cfg: cfg, log: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if pc.handler != nil {
			if token := c.Subscribe(cfg.PackagesTopic, cfg.QoS, pc.onPackage); token.Wait() && token.Error() != nil {
				log.Errorf("subscribe error: %v", token.Error())
			}
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "sorter-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// SubscribePackages registers the identification handler and subscribes
// to the packages topic.
func (p *PahoClient) SubscribePackages(handler func(PackageMessage)) error {
	p.handler = handler
	token := p.cli.Subscribe(p.cfg.PackagesTopic, p.cfg.QoS, p.onPackage)
	token.Wait()
	return token.Error()
}

func (p *PahoClient) onPackage(_ paho.Client, msg paho.Message) {
	m, err := DecodePackageMessage(msg.Payload())
	if err != nil {
		p.log.Errorf("dropping identification event: %v", err)
		return
	}
	if p.handler != nil {
		p.handler(m)
	}
}

// PublishPackage publishes an identification event. Used by the enqueue
// commissioning command.
func (p *PahoClient) PublishPackage(m PackageMessage) error {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	return p.publishJSON(p.cfg.PackagesTopic, m)
}

// PublishReport publishes a terminal package report.
func (p *PahoClient) PublishReport(r model.PackageReport) error {
	return p.publishJSON(p.cfg.ResultTopic, ReportMessage{
		PackageID: r.PackageID,
		Outcome:   r.Outcome.String(),
		Chute:     r.Chute,
		LatencyMS: r.Latency.Milliseconds(),
		Timestamp: r.Time.UnixMilli(),
	})
}

// PublishStatus publishes a device connectivity transition.
func (p *PahoClient) PublishStatus(ev events.ConnectionEvent) error {
	return p.publishJSON(p.cfg.StatusTopic, StatusMessage{
		Device:    ev.Device,
		Connected: ev.Connected,
		Timestamp: ev.Time.UnixMilli(),
	})
}

func (p *PahoClient) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := p.cli.Publish(topic, p.cfg.QoS, false, payload)
	token.Wait()
	return token.Error()
}

// Close gracefully disconnects from the broker.
func (p *PahoClient) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
