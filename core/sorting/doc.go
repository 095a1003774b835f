// Package sorting implements the trigger-correlation and dispatch engine
// for conveyor package diverters.
//
// Packages announced by the identification subsystem wait in a FIFO queue
// until a debounced beam-break signal from the trigger photoelectric
// falls inside their acceptance window. A match produces absolute
// actuation and reset deadlines for the diverter serving the assigned
// chute, executed by the dispatcher over the device links. Packages that
// miss their window, collide on a busy actuator or hit a downed link are
// reported to the error chute, never dropped.
package sorting
