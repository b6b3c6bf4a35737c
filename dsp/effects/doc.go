// Package effects defines the Effect contract shared by every processor in
// the playback chain, plus the Kind enumeration used to identify them.
//
// Concrete effects live in subpackages:
//   - dynamics: compressor and limiter
//   - eq: parametric and graphic equalisers
//   - spatial: crossfeed and stereo enhancer
//   - reverb: convolution reverb
package effects
