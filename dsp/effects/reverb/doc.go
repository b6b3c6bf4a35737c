// Package reverb implements a stereo convolution reverb.
//
// An impulse response is loaded once, resampled to the engine rate and
// split into one convolution engine per channel. Short responses run a
// direct FIR, longer ones a zero-latency partitioned FFT convolver. The
// dry/wet mix is the only parameter that changes without a reload.
package reverb
