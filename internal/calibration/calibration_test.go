package calibration

import (
	"errors"
	"testing"
)

func TestBaselineMedian(t *testing.T) {
	baseline, err := Baseline([]int64{400, 500, 300, 450, 350})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if baseline != 400 {
		t.Fatalf("expected median 400, got %d", baseline)
	}
}

func TestBaselineEvenSampleCount(t *testing.T) {
	baseline, err := Baseline([]int64{300, 400, 500, 600, 350, 450})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if baseline != 425 {
		t.Fatalf("expected median 425, got %d", baseline)
	}
}

func TestBaselineDiscardsFalseStarts(t *testing.T) {
	// Two sub-80ms samples are anticipations, not reactions.
	baseline, err := Baseline([]int64{10, 50, 400, 500, 300, 450, 350})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if baseline != 400 {
		t.Fatalf("expected median 400, got %d", baseline)
	}
}

func TestBaselineDiscardsOutliers(t *testing.T) {
	// 5000ms is over 3x the median and must not skew the result.
	baseline, err := Baseline([]int64{400, 500, 300, 450, 350, 5000})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if baseline != 400 {
		t.Fatalf("expected median 400, got %d", baseline)
	}
}

func TestBaselineTooFewSamples(t *testing.T) {
	_, err := Baseline([]int64{10, 20, 30, 400, 500, 450, 350})
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := &Session{}
	samples := []int64{400, 420, 380, 410, 390, 430, 405}
	for i, sample := range samples {
		if s.Done() {
			t.Fatalf("session done after %d samples", i)
		}
		s.Record(sample)
	}
	if s.Recorded() != Prompts {
		t.Fatalf("expected %d recorded, got %d", Prompts, s.Recorded())
	}
	if !s.Done() {
		t.Fatalf("session should be done after %d samples", Prompts)
	}
	baseline, err := s.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if baseline != 405 {
		t.Fatalf("expected median 405, got %d", baseline)
	}
}
