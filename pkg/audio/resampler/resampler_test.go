package resampler

import (
	"math"
	"testing"
)

func TestSamplesSameRate(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out, err := Samples(in, 24000, 24000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	out[0] = 9
	if in[0] == 9 {
		t.Error("Samples must not alias its input")
	}
}

func TestSamplesLength(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		src, dst int
		want     int
	}{
		{"up 24k->48k", 2400, 24000, 48000, 4800},
		{"down 24k->16k", 2400, 24000, 16000, 1600},
		{"odd 24k->22050", 2400, 24000, 22050, 2205},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Samples(make([]float32, tt.n), tt.src, tt.dst)
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
		})
	}
}

func TestSamplesPreservesLevel(t *testing.T) {
	in := make([]float32, 4800)
	for i := range in {
		in[i] = 0.5
	}
	out, err := Samples(in, 24000, 48000)
	if err != nil {
		t.Fatal(err)
	}
	mid := out[len(out)/2]
	if math.Abs(float64(mid)-0.5) > 0.05 {
		t.Errorf("mid sample = %f, want ~0.5", mid)
	}
}

func TestSamplesInvalidRate(t *testing.T) {
	if _, err := Samples([]float32{0}, 0, 24000); err == nil {
		t.Error("expected error for zero source rate")
	}
	if _, err := L16([]byte{0, 0}, 24000, -1); err == nil {
		t.Error("expected error for negative destination rate")
	}
}

func TestL16Length(t *testing.T) {
	data := make([]byte, 2*2400)
	out, err := L16(data, 24000, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2*4800 {
		t.Errorf("len = %d, want %d", len(out), 2*4800)
	}

	same, err := L16([]byte{1, 2, 3}, 16000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(same) != 2 {
		t.Errorf("odd trailing byte kept: len = %d", len(same))
	}
}
