package events

import "github.com/PercyRoc/CangFenBao-sub014/core/model"

// SignalEvent is published for every trigger event that survives the
// debounce filter. Raw duplicates never reach the bus.
type SignalEvent struct {
	Trigger model.TriggerEvent
}
