package kitten

import (
	"fmt"
	"math"
)

// OutputValidator decides whether a primary backend waveform is usable.
// Rejected output is recomputed on the fallback backend.
type OutputValidator interface {
	Name() string
	Valid(samples []float32) bool
}

// FirstSampleNaN rejects output whose first sample is NaN. The unstable
// backend poisons the whole waveform when it fails, so one sample is enough
// in practice; it does not see NaNs that start later.
type FirstSampleNaN struct{}

func (FirstSampleNaN) Name() string { return "first-sample" }

func (FirstSampleNaN) Valid(samples []float32) bool {
	return len(samples) == 0 || !math.IsNaN(float64(samples[0]))
}

// FullScan rejects output containing any NaN or infinity.
type FullScan struct{}

func (FullScan) Name() string { return "full-scan" }

func (FullScan) Valid(samples []float32) bool {
	for _, s := range samples {
		if !finite(s) {
			return false
		}
	}
	return true
}

// ParseValidator returns the validator with the given name. The empty name
// selects FirstSampleNaN.
func ParseValidator(name string) (OutputValidator, error) {
	switch name {
	case "", FirstSampleNaN{}.Name():
		return FirstSampleNaN{}, nil
	case FullScan{}.Name():
		return FullScan{}, nil
	}
	return nil, fmt.Errorf("kitten: unknown output validator %q", name)
}

func finite(s float32) bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
