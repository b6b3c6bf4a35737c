package cli

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soulaudio/soul-player-sub002/dsp/dop"
)

// EncodeDoP reads channel-interleaved DSD bytes from r and writes
// little-endian 32-bit DoP words to w. It returns the number of frames
// written.
func EncodeDoP(r io.Reader, w io.Writer, channels int) (int, error) {
	enc, err := dop.NewEncoder(channels)
	if err != nil {
		return 0, err
	}

	dsd, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read dsd: %w", err)
	}

	words, err := enc.Encode(dsd)
	if err != nil {
		return 0, err
	}

	if err := binary.Write(w, binary.LittleEndian, words); err != nil {
		return 0, fmt.Errorf("write dop: %w", err)
	}

	return len(words) / channels, nil
}

// DecodeDoP is the inverse of EncodeDoP. It returns the number of marker
// resynchronisations the decoder needed.
func DecodeDoP(r io.Reader, w io.Writer, channels int) (int, error) {
	dec, err := dop.NewDecoder(channels)
	if err != nil {
		return 0, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read dop: %w", err)
	}

	if len(raw)%4 != 0 {
		return 0, fmt.Errorf("%w: %d bytes", dop.ErrMisaligned, len(raw))
	}

	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}

	dsd, err := dec.Decode(words)
	if err != nil {
		return dec.Resyncs(), err
	}

	if _, err := w.Write(dsd); err != nil {
		return dec.Resyncs(), fmt.Errorf("write dsd: %w", err)
	}

	return dec.Resyncs(), nil
}

// ConvertDoPFile runs EncodeDoP, or DecodeDoP when decode is set, from
// inPath to outPath. The count is frames when encoding and resyncs when
// decoding. A failed close of the output is reported with any codec error.
func ConvertDoPFile(inPath, outPath string, channels int, decode bool) (n int, err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}

	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", outPath, cerr))
		}
	}()

	if decode {
		return DecodeDoP(in, out, channels)
	}

	return EncodeDoP(in, out, channels)
}
