package resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// tailPadding is the number of zero frames pushed through the filter after
// the real input so its group delay is flushed into the output.
const tailPadding = 4096

// Samples resamples mono float32 samples from srcRate to dstRate. When the
// rates match, a copy of the input is returned.
func Samples(in []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(in) == 0 {
		out := make([]float32, len(in))
		copy(out, in)
		return out, nil
	}

	input := make([]float64, len(in)+tailPadding)
	for i, s := range in {
		input[i] = float64(s)
	}
	output, err := process(input, srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	want := expectedLen(len(in), srcRate, dstRate)
	out := make([]float32, want)
	for i := range out {
		if i < len(output) {
			out[i] = float32(output[i])
		}
	}
	return out, nil
}

// L16 resamples mono little-endian 16-bit PCM from srcRate to dstRate.
func L16(data []byte, srcRate, dstRate int) ([]byte, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(data) < 2 {
		out := make([]byte, len(data)/2*2)
		copy(out, data)
		return out, nil
	}

	n := len(data) / 2
	input := make([]float64, n+tailPadding)
	for i := 0; i < n; i++ {
		sample := int16(data[i*2]) | int16(data[i*2+1])<<8
		input[i] = float64(sample) / 32768.0
	}
	output, err := process(input, srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	want := expectedLen(n, srcRate, dstRate)
	out := make([]byte, want*2)
	for i := 0; i < want && i < len(output); i++ {
		s := output[i]
		sample := int16(s * 32767.0)
		if s > 1.0 {
			sample = 32767
		} else if s < -1.0 {
			sample = -32768
		}
		out[i*2] = byte(sample)
		out[i*2+1] = byte(sample >> 8)
	}
	return out, nil
}

func process(input []float64, srcRate, dstRate int) ([]float64, error) {
	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}
	output, err := r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}
	return output, nil
}

func expectedLen(n, srcRate, dstRate int) int {
	return int(math.Round(float64(n) * float64(dstRate) / float64(srcRate)))
}
