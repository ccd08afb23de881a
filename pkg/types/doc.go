// Package types defines the SessionRecord entity, the interaction event
// union, the Store interface, and standard error values for the Walkabout
// session engine.
// See docs/ARCHITECTURE.md § Main Interface.
package types
