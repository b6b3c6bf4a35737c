// Package effectchain runs an ordered list of effects on interleaved
// stereo buffers and routes live parameter updates to them.
//
// Every effect is wrapped in an Adapter that carries static Info and
// accepts only its own Settings variant. The chain's effect list is
// replaced copy-on-write, so the audio thread never waits on a writer.
package effectchain
