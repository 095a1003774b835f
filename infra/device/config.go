package device

import "time"

// Config defines connection supervision parameters shared by all links.
type Config struct {
	// DialTimeoutMS bounds a single connection attempt.
	DialTimeoutMS int `json:"dial_timeout_ms"`
	// HeartbeatIntervalMS is the period between heartbeat frames.
	HeartbeatIntervalMS int `json:"heartbeat_interval_ms"`
	// HeartbeatTimeoutMS tears the link down when no acknowledgment
	// arrives within it.
	HeartbeatTimeoutMS int `json:"heartbeat_timeout_ms"`
	// ReconnectBackoffMS is the initial delay between reconnect attempts.
	ReconnectBackoffMS int `json:"reconnect_backoff_ms"`
	// ReconnectBackoffMaxMS caps the exponential backoff.
	ReconnectBackoffMaxMS int `json:"reconnect_backoff_max_ms"`
	// WriteTimeoutMS bounds a single frame write.
	WriteTimeoutMS int `json:"write_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DialTimeoutMS <= 0 {
		c.DialTimeoutMS = 3000
	}
	if c.HeartbeatIntervalMS <= 0 {
		c.HeartbeatIntervalMS = 5000
	}
	if c.HeartbeatTimeoutMS <= 0 {
		c.HeartbeatTimeoutMS = 15000
	}
	if c.ReconnectBackoffMS <= 0 {
		c.ReconnectBackoffMS = 500
	}
	if c.ReconnectBackoffMaxMS <= 0 {
		c.ReconnectBackoffMaxMS = 30000
	}
	if c.WriteTimeoutMS <= 0 {
		c.WriteTimeoutMS = 1000
	}
}

func (c Config) dialTimeout() time.Duration   { return time.Duration(c.DialTimeoutMS) * time.Millisecond }
func (c Config) hbInterval() time.Duration    { return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond }
func (c Config) hbTimeout() time.Duration     { return time.Duration(c.HeartbeatTimeoutMS) * time.Millisecond }
func (c Config) backoffInitial() time.Duration {
	return time.Duration(c.ReconnectBackoffMS) * time.Millisecond
}
func (c Config) backoffMax() time.Duration {
	return time.Duration(c.ReconnectBackoffMaxMS) * time.Millisecond
}
func (c Config) writeTimeout() time.Duration { return time.Duration(c.WriteTimeoutMS) * time.Millisecond }
