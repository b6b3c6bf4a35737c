package dop

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

func randomBytes(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]byte, n)

	for i := range out {
		out[i] = byte(rng.UintN(256))
	}

	return out
}

func TestRoundTrip(t *testing.T) {
	for _, channels := range []int{1, 2, 6} {
		enc, err := NewEncoder(channels)
		if err != nil {
			t.Fatalf("NewEncoder(%d) error = %v", channels, err)
		}

		dec, err := NewDecoder(channels)
		if err != nil {
			t.Fatalf("NewDecoder(%d) error = %v", channels, err)
		}

		// Several calls so marker state carries across buffers, including
		// an odd number of frames per call.
		for call, frames := range []int{3, 64, 1, 255} {
			in := randomBytes(uint64(call+1), frames*BytesPerSample*channels)

			words, err := enc.Encode(in)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			if len(words) != enc.OutputLen(len(in)) {
				t.Fatalf("Encode() produced %d words, want %d", len(words), enc.OutputLen(len(in)))
			}

			out, err := dec.Decode(words)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if !bytes.Equal(out, in) {
				t.Fatalf("%d channels call %d: round trip mismatch", channels, call)
			}
		}

		if dec.Resyncs() != 0 {
			t.Fatalf("Resyncs() = %d, want 0", dec.Resyncs())
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	enc, _ := NewEncoder(2)

	// Frame 0: L bytes 0x11,0x33 R bytes 0x22,0x44. Frame 1: L 0x55,0x77 R 0x66,0x88.
	words, err := enc.Encode([]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []uint32{0x05001133, 0x05002244, 0xFA005577, 0xFA006688}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("words[%d] = %#08x, want %#08x", i, words[i], want[i])
		}
	}
}

func TestMarkersAlternatePerFrame(t *testing.T) {
	enc, _ := NewEncoder(1)

	words, _ := enc.Encode(make([]byte, 10))
	for i, w := range words {
		want := MarkerA
		if i%2 == 1 {
			want = MarkerB
		}

		if byte(w>>24) != want {
			t.Fatalf("word %d marker = %#02x, want %#02x", i, w>>24, want)
		}
	}

	// The next call continues the alternation.
	more, _ := enc.Encode(make([]byte, 2))
	if byte(more[0]>>24) != MarkerB {
		t.Fatalf("next marker = %#02x, want %#02x", more[0]>>24, MarkerB)
	}

	enc.Reset()

	more, _ = enc.Encode(make([]byte, 2))
	if byte(more[0]>>24) != MarkerA {
		t.Fatalf("marker after Reset = %#02x, want %#02x", more[0]>>24, MarkerA)
	}
}

func TestMisalignedInput(t *testing.T) {
	enc, _ := NewEncoder(2)
	if _, err := enc.Encode(make([]byte, 6)); !errors.Is(err, ErrMisaligned) {
		t.Fatalf("Encode(6 bytes) error = %v, want ErrMisaligned", err)
	}

	dec, _ := NewDecoder(2)
	if _, err := dec.Decode(make([]uint32, 3)); !errors.Is(err, ErrMisaligned) {
		t.Fatalf("Decode(3 words) error = %v, want ErrMisaligned", err)
	}
}

func TestDecodeRejectsBadMarker(t *testing.T) {
	dec, _ := NewDecoder(1)

	out, err := dec.Decode([]uint32{0x05000102, 0xFA000304, 0x12000506})
	if !errors.Is(err, ErrMarker) {
		t.Fatalf("Decode() error = %v, want ErrMarker", err)
	}

	if !bytes.Equal(out, []byte{1, 2, 3, 4}) {
		t.Fatalf("Decode() partial = %v", out)
	}
}

func TestDecodeRejectsDisagreeingChannels(t *testing.T) {
	dec, _ := NewDecoder(2)

	if _, err := dec.Decode([]uint32{0x05000000, 0xFA000000}); !errors.Is(err, ErrMarker) {
		t.Fatalf("Decode() error = %v, want ErrMarker", err)
	}
}

func TestDecodeResyncsOnAlternateMarker(t *testing.T) {
	dec, _ := NewDecoder(1)

	// Stream joined mid-way: first frame carries MarkerB.
	out, err := dec.Decode([]uint32{0xFA00AABB, 0x0500CCDD, 0xFA00EEFF})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !bytes.Equal(out, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}) {
		t.Fatalf("Decode() = %x", out)
	}

	if dec.Resyncs() != 1 {
		t.Fatalf("Resyncs() = %d, want 1", dec.Resyncs())
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, _ := NewEncoder(1)
	b, _ := NewEncoder(1)

	_, _ = a.Encode(make([]byte, 2))

	w, _ := b.Encode(make([]byte, 2))
	if byte(w[0]>>24) != MarkerA {
		t.Fatalf("second encoder started with %#02x", w[0]>>24)
	}
}

func TestDetect(t *testing.T) {
	enc, _ := NewEncoder(2)
	words, _ := enc.Encode(randomBytes(9, 64))

	if !Detect(words, 2, 8) {
		t.Fatal("Detect() = false for DoP stream")
	}

	pcm := []uint32{0x00123456, 0x00654321, 0x00111111, 0x00222222}
	if Detect(pcm, 2, 1) {
		t.Fatal("Detect() = true for PCM")
	}

	if Detect(words[:4], 2, 8) {
		t.Fatal("Detect() = true for a too-short stream")
	}
}

func TestRates(t *testing.T) {
	if got := PCMRate(2822400); got != 176400 {
		t.Fatalf("PCMRate(DSD64) = %d, want 176400", got)
	}

	if got := DSDRate(352800); got != 5644800 {
		t.Fatalf("DSDRate(352800) = %d, want 5644800", got)
	}
}

func TestInvalidChannels(t *testing.T) {
	if _, err := NewEncoder(0); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("NewEncoder(0) error = %v", err)
	}

	if _, err := NewDecoder(-1); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("NewDecoder(-1) error = %v", err)
	}
}
