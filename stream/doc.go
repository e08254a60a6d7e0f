// Package stream delivers per-provider outcomes as they settle.
//
// A Session receives a start event as soon as it opens, then one event per
// provider in completion order. Events are written to a buffered channel
// sized so producers never block; a transport drains it. Sessions stay open
// after the last provider settles and end only when the consumer calls Close.
package stream
