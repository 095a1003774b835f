package events

import "time"

// ConnectionEvent is published on every device link connectivity
// transition. The connection manager is the only producer.
type ConnectionEvent struct {
	Device    string
	Connected bool
	Err       error
	Time      time.Time
}
