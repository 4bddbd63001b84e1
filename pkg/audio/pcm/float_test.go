package pcm

import (
	"math"
	"testing"
)

func TestL16FromFloat(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		in      float32
		want    int16
		clamped bool
		invalid bool
	}{
		{0, 0, false, false},
		{1, 32767, false, false},
		{-1, -32767, false, false},
		{0.5, 16384, false, false},
		{-0.5, -16384, false, false},
		{1.5, 32767, true, false},
		{-2, -32768, true, false},
		{-1.0001, -32768, true, false},
		{nan, 0, false, true},
		{inf, 0, false, true},
		{-inf, 0, false, true},
	}
	for _, tt := range tests {
		got, clamped, invalid := L16FromFloat(tt.in)
		if got != tt.want || clamped != tt.clamped || invalid != tt.invalid {
			t.Errorf("L16FromFloat(%v) = (%d, %v, %v), want (%d, %v, %v)",
				tt.in, got, clamped, invalid, tt.want, tt.clamped, tt.invalid)
		}
	}
}

func TestAppendL16(t *testing.T) {
	data, stats := AppendL16(nil, []float32{1, -1, 2, float32(math.NaN()), -2})
	if len(data) != 10 {
		t.Fatalf("len = %d, want 10", len(data))
	}
	if stats.Samples != 5 || stats.Clamped != 2 || stats.Invalid != 1 {
		t.Errorf("stats = %+v", stats)
	}
	got := Int16s(data)
	want := []int16{32767, -32767, 32767, 0, -32768}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
