// Package circuitbreaker tracks per-node transport failures so the fan-out
// path can stop hammering a node that keeps timing out or refusing
// connections. A breaker opens after a configured number of consecutive
// transport failures, blocks dispatch while open, and moves to half-open
// after the reset timeout to let a single probe through.
package circuitbreaker
