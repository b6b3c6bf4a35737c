// Package spatial provides headphone crossfeed and mid/side stereo
// enhancement for interleaved stereo buffers.
package spatial
