// Package conv provides the streaming convolution engines behind the
// convolution reverb.
//
//   - Direct: time-domain FIR, O(N) per sample. Best for short kernels.
//   - Partitioned: uniformly partitioned overlap-save. The first block of
//     the kernel runs through a Direct engine, so output has no latency;
//     the remaining partitions are convolved in the frequency domain with
//     github.com/MeKo-Christian/algo-fft.
//
// Both engines process one channel and are not safe for concurrent use.
package conv
