// Package calibration derives a learner's motor baseline from simple
// stimulus-response latencies.
package calibration

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIncomplete reports that too few valid samples survived filtering.
// The caller should prompt a retry. Use errors.Is to check.
var ErrIncomplete = errors.New("calibration: too few valid samples")

// Calibration constants: a fixed number of prompts per run, a floor
// below which a latency cannot be a real reaction, an outlier cutoff
// relative to the sample median, and the minimum surviving sample count.
const (
	Prompts        = 7
	minPlausibleMs = 80
	outlierRatio   = 3.0
	minSamples     = 5
)

// Baseline derives a motor baseline from raw latencies: implausibly
// fast samples and outliers beyond outlierRatio times the median are
// discarded, and the baseline is the median of the survivors.
func Baseline(samples []int64) (int64, error) {
	valid := make([]int64, 0, len(samples))
	for _, s := range samples {
		if s >= minPlausibleMs {
			valid = append(valid, s)
		}
	}
	if len(valid) < minSamples {
		return 0, fmt.Errorf("%w: %d of %d required", ErrIncomplete, len(valid), minSamples)
	}
	cutoff := int64(float64(median(valid)) * outlierRatio)
	kept := make([]int64, 0, len(valid))
	for _, s := range valid {
		if s <= cutoff {
			kept = append(kept, s)
		}
	}
	if len(kept) < minSamples {
		return 0, fmt.Errorf("%w: %d of %d required", ErrIncomplete, len(kept), minSamples)
	}
	return median(kept), nil
}

func median(samples []int64) int64 {
	sorted := make([]int64, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Session collects latencies across one calibration run.
type Session struct {
	samples []int64
}

// Record adds one latency sample.
func (s *Session) Record(latencyMs int64) {
	s.samples = append(s.samples, latencyMs)
}

// Recorded returns the number of samples collected so far.
func (s *Session) Recorded() int {
	return len(s.samples)
}

// Done reports whether all prompts have been answered.
func (s *Session) Done() bool {
	return len(s.samples) >= Prompts
}

// Baseline derives the baseline from the collected samples.
func (s *Session) Baseline() (int64, error) {
	return Baseline(s.samples)
}
