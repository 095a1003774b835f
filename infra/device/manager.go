package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	"github.com/PercyRoc/CangFenBao-sub014/core/logger"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

// ErrNotConnected reports a command against a device whose link is down.
var ErrNotConnected = errors.New("device: not connected")

// Endpoint names one device and its TCP address.
type Endpoint struct {
	Name string
	Addr string
}

// linkState is the manager's record for one device. The manager is the
// only writer; readers go through the accessors.
type linkState struct {
	connected    bool
	known        bool // at least one transition published
	link         *Link
	lastActivity time.Time
}

// Manager owns one device link per configured photoelectric and
// supervises reconnection with exponential backoff. Connectivity
// transitions are published on the event bus rather than polled.
//
// Manager implements sorting.CommandSender.
type Manager struct {
	cfg       Config
	endpoints []Endpoint
	bus       eventbus.EventBus
	log       logger.Logger
	onTrigger func(model.TriggerEvent)

	mu     sync.RWMutex
	states map[string]*linkState
	wg     sync.WaitGroup
}

// NewManager creates a Manager for the given endpoints. onTrigger is
// invoked from each link's read loop for every decoded beam-break signal;
// links run in parallel and never block one another.
func NewManager(cfg Config, endpoints []Endpoint, onTrigger func(model.TriggerEvent), bus eventbus.EventBus, log logger.Logger) (*Manager, error) {
	if onTrigger == nil || bus == nil || log == nil {
		return nil, fmt.Errorf("device: nil parameter provided to NewManager")
	}
	cfg.SetDefaults()
	states := make(map[string]*linkState, len(endpoints))
	for _, ep := range endpoints {
		if ep.Name == "" || ep.Addr == "" {
			return nil, fmt.Errorf("device: endpoint needs name and addr, got %+v", ep)
		}
		if _, dup := states[ep.Name]; dup {
			return nil, fmt.Errorf("device: duplicate endpoint name %s", ep.Name)
		}
		states[ep.Name] = &linkState{}
	}
	return &Manager{
		cfg:       cfg,
		endpoints: endpoints,
		bus:       bus,
		log:       log,
		onTrigger: onTrigger,
		states:    states,
	}, nil
}

// Start launches one supervision goroutine per device. They run until ctx
// is canceled; Close waits for them.
func (m *Manager) Start(ctx context.Context) {
	for _, ep := range m.endpoints {
		m.wg.Add(1)
		go func(ep Endpoint) {
			defer m.wg.Done()
			m.supervise(ctx, ep)
		}(ep)
	}
}

// Close blocks until all supervision goroutines have stopped and their
// connections are closed.
func (m *Manager) Close() { m.wg.Wait() }

// supervise drives the per-device state machine:
// Disconnected -> Connecting -> Connected -> (failure) Disconnected,
// with exponential backoff between attempts, reset on success.
func (m *Manager) supervise(ctx context.Context, ep Endpoint) {
	backoff := m.cfg.backoffInitial()
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := net.DialTimeout("tcp", ep.Addr, m.cfg.dialTimeout())
		if err != nil {
			m.setConnected(ep.Name, nil, err)
			m.log.Warnf("device %s: connect %s failed: %v (retry in %s)", ep.Name, ep.Addr, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > m.cfg.backoffMax() {
				backoff = m.cfg.backoffMax()
			}
			continue
		}

		link := newLink(ep.Name, conn, m.cfg, m.log, m.onTrigger)
		m.setLink(ep.Name, link)
		m.log.Infof("device %s: connected to %s", ep.Name, ep.Addr)
		backoff = m.cfg.backoffInitial()

		err = link.run(ctx)
		m.setConnected(ep.Name, nil, err)
		if ctx.Err() != nil {
			return
		}
		m.log.Errorf("device %s: link down: %v", ep.Name, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (m *Manager) setLink(name string, link *Link) {
	m.mu.Lock()
	st := m.states[name]
	transition := !st.known || !st.connected
	st.connected = true
	st.known = true
	st.link = link
	st.lastActivity = time.Now()
	m.mu.Unlock()
	if transition {
		m.bus.Publish(events.ConnectionEvent{Device: name, Connected: true, Time: time.Now()})
	}
}

func (m *Manager) setConnected(name string, link *Link, cause error) {
	m.mu.Lock()
	st := m.states[name]
	transition := !st.known || st.connected
	st.connected = false
	st.known = true
	st.link = link
	st.lastActivity = time.Now()
	m.mu.Unlock()
	if transition {
		m.bus.Publish(events.ConnectionEvent{Device: name, Connected: false, Err: cause, Time: time.Now()})
	}
}

// IsConnected reports the link state for the named device.
func (m *Manager) IsConnected(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[name]
	return ok && st.connected
}

// SendActuate fires the diverter behind the named device link.
func (m *Manager) SendActuate(name string) error {
	return m.send(name, CmdActuate)
}

// SendReset returns the diverter behind the named device link to rest.
func (m *Manager) SendReset(name string) error {
	return m.send(name, CmdReset)
}

func (m *Manager) send(name string, cmdType uint16) error {
	m.mu.RLock()
	st, ok := m.states[name]
	var link *Link
	if ok && st.connected {
		link = st.link
	}
	m.mu.RUnlock()
	if link == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, name)
	}
	return link.send(Frame{Type: cmdType, ID: link.nextID()})
}
