// Package wav encodes and decodes 16-bit PCM WAV containers.
//
// The encoder always produces the canonical 44-byte RIFF header followed by
// mono little-endian 16-bit samples:
//
//	offset  size  field
//	0       4     "RIFF"
//	4       4     36 + data bytes
//	8       4     "WAVE"
//	12      4     "fmt "
//	16      4     16 (fmt chunk length)
//	20      2     1 (PCM)
//	22      2     1 (mono)
//	24      4     sample rate
//	28      4     byte rate (sample rate * 2)
//	32      2     block align (2)
//	34      2     bits per sample (16)
//	36      4     "data"
//	40      4     data bytes (samples * 2)
//	44      ...   samples
//
// Float samples are converted with [pcm.L16FromFloat]: non-finite values
// become silence and out-of-range values are clamped. The number of clamped
// samples is reported in [Stats] and logged, since it usually means the
// upstream gain stage is wrong.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
)

// HeaderSize is the size of the canonical PCM WAV header.
const HeaderSize = 44

// Stats reports the conversion counters of one encode.
type Stats = pcm.ConvertStats

// Sentinel errors.
var (
	// ErrInvalid is returned when a container cannot be parsed.
	ErrInvalid = errors.New("wav: invalid container")

	// ErrUnsupported is returned for valid containers in formats other than
	// 16-bit PCM.
	ErrUnsupported = errors.New("wav: unsupported format")
)

// Header returns the canonical header for dataBytes of mono 16-bit PCM.
func Header(dataBytes, sampleRate int) [HeaderSize]byte {
	var h [HeaderSize]byte
	le := binary.LittleEndian
	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], uint32(36+dataBytes))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], 16)
	le.PutUint16(h[20:22], 1)
	le.PutUint16(h[22:24], 1)
	le.PutUint32(h[24:28], uint32(sampleRate))
	le.PutUint32(h[28:32], uint32(sampleRate*2))
	le.PutUint16(h[32:34], 2)
	le.PutUint16(h[34:36], 16)
	copy(h[36:40], "data")
	le.PutUint32(h[40:44], uint32(dataBytes))
	return h
}

// Encode serializes float samples into a mono 16-bit WAV container.
func Encode(samples []float32, sampleRate int) ([]byte, Stats) {
	h := Header(len(samples)*2, sampleRate)
	buf := make([]byte, 0, HeaderSize+len(samples)*2)
	buf = append(buf, h[:]...)
	buf, stats := pcm.AppendL16(buf, samples)
	report(stats, sampleRate)
	return buf, stats
}

// Write encodes samples and writes the container to w.
func Write(w io.Writer, samples []float32, sampleRate int) (Stats, error) {
	data, stats := Encode(samples, sampleRate)
	if _, err := w.Write(data); err != nil {
		return stats, fmt.Errorf("wav: write: %w", err)
	}
	return stats, nil
}

func report(stats Stats, sampleRate int) {
	if stats.Clamped > 0 {
		slog.Warn("wav: samples clamped",
			"clamped", stats.Clamped,
			"samples", stats.Samples,
			"sample_rate", sampleRate)
	}
	if stats.Invalid > 0 {
		slog.Warn("wav: invalid samples written as silence",
			"invalid", stats.Invalid,
			"samples", stats.Samples)
	}
}

// Audio is a decoded 16-bit PCM container.
type Audio struct {
	SampleRate int
	Channels   int
	// Data holds the interleaved little-endian 16-bit samples.
	Data []byte
}

// Mono returns the samples downmixed to one channel.
func (a *Audio) Mono() []byte {
	if a.Channels <= 1 {
		return a.Data
	}
	frame := 2 * a.Channels
	out := make([]byte, 0, len(a.Data)/a.Channels)
	for i := 0; i+frame <= len(a.Data); i += frame {
		var sum int32
		for c := 0; c < a.Channels; c++ {
			j := i + c*2
			sum += int32(int16(a.Data[j]) | int16(a.Data[j+1])<<8)
		}
		v := int16(sum / int32(a.Channels))
		out = append(out, byte(v), byte(uint16(v)>>8))
	}
	return out
}

// Decode parses a RIFF/WAVE container holding 16-bit PCM. Unknown chunks
// (LIST, fact, ...) are skipped.
func Decode(data []byte) (*Audio, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrInvalid)
	}
	le := binary.LittleEndian
	var (
		a      Audio
		gotFmt bool
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(le.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			if id == "data" {
				// Streams written before the final length was known.
				size = len(data) - body
			} else {
				return nil, fmt.Errorf("%w: chunk %q overruns container", ErrInvalid, id)
			}
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrInvalid)
			}
			f := data[body : body+size]
			if tag := le.Uint16(f[0:2]); tag != 1 {
				return nil, fmt.Errorf("%w: format tag %d", ErrUnsupported, tag)
			}
			if bits := le.Uint16(f[14:16]); bits != 16 {
				return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupported, bits)
			}
			a.Channels = int(le.Uint16(f[2:4]))
			a.SampleRate = int(le.Uint32(f[4:8]))
			if a.Channels == 0 || a.SampleRate == 0 {
				return nil, fmt.Errorf("%w: zero channels or sample rate", ErrInvalid)
			}
			gotFmt = true
		case "data":
			if !gotFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalid)
			}
			a.Data = data[body : body+size]
			return &a, nil
		}
		// Chunks are padded to an even size.
		off = body + size + size%2
	}
	return nil, fmt.Errorf("%w: no data chunk", ErrInvalid)
}
