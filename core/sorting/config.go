package sorting

import (
	"fmt"
	"time"
)

// PhotoelectricConfig describes one photoelectric sensor and, for sort
// entries, the diverter actuator wired to the same device endpoint.
type PhotoelectricConfig struct {
	// Name uniquely identifies the sensor across the session.
	Name string `json:"name"`
	// Endpoint is the host:port of the device link.
	Endpoint string `json:"endpoint"`
	// Chute is the destination chute served by this sort photoelectric.
	// Ignored for the trigger entry.
	Chute int `json:"chute"`
	// TimeRangeLowerMS / TimeRangeUpperMS bound the valid interval, in
	// milliseconds after enqueue, during which a trigger may match.
	TimeRangeLowerMS int `json:"time_range_lower_ms"`
	TimeRangeUpperMS int `json:"time_range_upper_ms"`
	// SortingDelayMS is the delay from match to the actuation command.
	SortingDelayMS int `json:"sorting_delay_ms"`
	// ResetDelayMS is the delay from actuation to the reset command.
	ResetDelayMS int `json:"reset_delay_ms"`
}

// Window returns the acceptance window as durations.
func (p PhotoelectricConfig) Window() (lower, upper time.Duration) {
	return time.Duration(p.TimeRangeLowerMS) * time.Millisecond,
		time.Duration(p.TimeRangeUpperMS) * time.Millisecond
}

// SortingDelay returns the trigger-to-actuation delay.
func (p PhotoelectricConfig) SortingDelay() time.Duration {
	return time.Duration(p.SortingDelayMS) * time.Millisecond
}

// ResetDelay returns the actuation-to-reset delay.
func (p PhotoelectricConfig) ResetDelay() time.Duration {
	return time.Duration(p.ResetDelayMS) * time.Millisecond
}

// Validate rejects sensor entries the engine must refuse to start with.
func (p PhotoelectricConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("photoelectric name is required")
	}
	if p.Endpoint == "" {
		return fmt.Errorf("photoelectric %s: endpoint is required", p.Name)
	}
	if p.TimeRangeLowerMS < 0 || p.TimeRangeUpperMS <= 0 {
		return fmt.Errorf("photoelectric %s: time range must be positive", p.Name)
	}
	if p.TimeRangeLowerMS >= p.TimeRangeUpperMS {
		return fmt.Errorf("photoelectric %s: time range bounds inverted [%d,%d]",
			p.Name, p.TimeRangeLowerMS, p.TimeRangeUpperMS)
	}
	return nil
}

// Config is the immutable engine configuration snapshot for one operating
// session. Updates apply to a freshly built engine, never in place.
type Config struct {
	// DebounceMS suppresses repeated triggers from the same sensor.
	DebounceMS int `json:"debounce_ms"`
	// Trigger is the entry photoelectric that starts timing windows.
	Trigger PhotoelectricConfig `json:"trigger"`
	// Sorts are the sort photoelectrics, one per diverter.
	Sorts []PhotoelectricConfig `json:"sorts"`
	// ErrorChute receives packages that miss their window or hit a busy
	// actuator.
	ErrorChute int `json:"error_chute"`
	// MatchRetryLimit bounds how many expired packages a single trigger
	// may evict before the event is abandoned.
	MatchRetryLimit int `json:"match_retry_limit"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DebounceMS <= 0 {
		c.DebounceMS = 50
	}
	if c.MatchRetryLimit <= 0 {
		c.MatchRetryLimit = 3
	}
}

// Debounce returns the debounce interval.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SortByChute returns the sort photoelectric serving the given chute.
func (c Config) SortByChute(chute int) (PhotoelectricConfig, bool) {
	for _, s := range c.Sorts {
		if s.Chute == chute {
			return s, true
		}
	}
	return PhotoelectricConfig{}, false
}

// Validate checks the whole snapshot.
func (c Config) Validate() error {
	if err := c.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	seen := map[string]bool{c.Trigger.Name: true}
	chutes := map[int]bool{}
	for _, s := range c.Sorts {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sort: %w", err)
		}
		if s.SortingDelayMS < 0 || s.ResetDelayMS <= 0 {
			return fmt.Errorf("sort %s: delays must be positive", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate photoelectric name %s", s.Name)
		}
		if chutes[s.Chute] {
			return fmt.Errorf("duplicate chute %d", s.Chute)
		}
		seen[s.Name] = true
		chutes[s.Chute] = true
	}
	return nil
}
