// Package dynamics provides the stereo-linked compressor and the brick-wall
// limiter of the playback chain.
//
// Gain computation runs in the log2 domain. Building with the fastmath tag
// swaps the log2 and exp2 helpers for the approximations in
// github.com/meko-christian/algo-approx.
package dynamics
