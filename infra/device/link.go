package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/logger"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// Link is one live connection to a photoelectric/actuator device. It owns
// the read loop and heartbeat supervision for that connection; the
// connection manager owns the Link itself.
type Link struct {
	name      string
	conn      net.Conn
	cfg       Config
	log       logger.Logger
	onTrigger func(model.TriggerEvent)

	writeMu sync.Mutex
	lastAck atomic.Int64 // unix nano of the last heartbeat acknowledgment
	cmdID   atomic.Uint32
}

func newLink(name string, conn net.Conn, cfg Config, log logger.Logger, onTrigger func(model.TriggerEvent)) *Link {
	l := &Link{name: name, conn: conn, cfg: cfg, log: log, onTrigger: onTrigger}
	l.lastAck.Store(time.Now().UnixNano())
	return l
}

// run serves the connection until it fails or ctx is canceled. The
// returned error describes why the link went down; a nil-causing clean
// shutdown returns ctx.Err().
func (l *Link) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- l.readLoop() }()
	go func() { errCh <- l.heartbeatLoop(ctx) }()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}
	cancel()
	_ = l.conn.Close()
	return err
}

// readLoop decodes frames until the connection fails. Malformed frames
// and unrecognized command types are dropped without closing the
// connection; only I/O errors tear the link down.
func (l *Link) readLoop() error {
	r := bufio.NewReader(l.conn)
	for {
		f, err := Decode(r)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				l.log.Warnf("link %s: %v", l.name, err)
				continue
			}
			return err
		}
		switch f.Type {
		case CmdTrigger:
			// The local monotonic clock stamps the event; device
			// payloads carry no trustworthy time base.
			l.onTrigger(model.TriggerEvent{Source: l.name, Timestamp: time.Now()})
		case CmdHeartbeatAck:
			l.lastAck.Store(time.Now().UnixNano())
		default:
			l.log.Debugf("link %s: dropping frame type 0x%04x", l.name, f.Type)
		}
	}
}

// heartbeatLoop sends heartbeat frames and fails the link when the device
// stops acknowledging them.
func (l *Link) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.hbInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.send(Frame{Type: CmdHeartbeat, ID: l.nextID()}); err != nil {
				return fmt.Errorf("heartbeat send: %w", err)
			}
			last := time.Unix(0, l.lastAck.Load())
			if time.Since(last) > l.cfg.hbTimeout() {
				return fmt.Errorf("heartbeat timeout after %s", l.cfg.hbTimeout())
			}
		}
	}
}

func (l *Link) nextID() uint16 {
	return uint16(l.cmdID.Add(1))
}

func (l *Link) send(f Frame) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.cfg.writeTimeout())); err != nil {
		return err
	}
	_, err := l.conn.Write(Encode(f))
	return err
}
