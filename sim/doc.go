// Package sim composes the resource cache and the adaptive particle engine
// into a per-frame loop.
//
// # Reading Guide
//
// Start with these files:
//   - engine.go: one animation frame, from draining finished loads to the
//     scheduled particle step
//   - config.go: the grouped configuration the engine is built from
//   - metrics.go: per-frame records and the run summary
//
// # Architecture
//
// The components live in sub-packages, leaves first:
//   - sim/device/: one-shot device tier classification
//   - sim/rescache/: bounded GPU resource cache, eviction, async loader
//   - sim/trace/: removal trace for the cache
//   - sim/interaction/: pointer state machine and screen-to-plane projection
//   - sim/particles/: particle arena, shape and behavior tables
//   - sim/frame/: frame-skip policy and FPS measurement
//
// The device Profile is computed once and passed to NewEngine; nothing below
// the engine reads it from package state.
//
// # Concurrency
//
// Everything runs on the frame goroutine. Only loader fetches run in their
// own goroutines; their results reach the cache when Frame drains them.
package sim
