// Package events defines the sorting related events emitted on the event bus.
//
// Available event types:
//   - SignalEvent: debounced trigger from a photoelectric sensor
//   - ConnectionEvent: device link connectivity transition
//   - DispatchEvent: terminal package report
//   - CalibrationEvent: measured trigger-to-confirmation delay sample
package events
