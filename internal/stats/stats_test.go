package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/fermata/internal/model"
)

func TestRoundMetrics(t *testing.T) {
	acc, perMin := RoundMetrics(18, 2, 60000)
	if math.Abs(acc-0.9) > 1e-9 {
		t.Fatalf("expected accuracy 0.9, got %v", acc)
	}
	if math.Abs(perMin-20) > 1e-9 {
		t.Fatalf("expected 20 answers/min, got %v", perMin)
	}

	acc, perMin = RoundMetrics(0, 0, 60000)
	if acc != 0 || perMin != 0 {
		t.Fatalf("expected zero metrics for empty round, got %v %v", acc, perMin)
	}

	acc, perMin = RoundMetrics(5, 0, 0)
	if acc != 1 || perMin != 0 {
		t.Fatalf("expected accuracy 1 and rate 0 for zero duration, got %v %v", acc, perMin)
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := MovingAverage(values, 2)
	want := []float64{1, 1.5, 2.5, 3.5, 4.5}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], out[i])
		}
	}

	same := MovingAverage(values, 1)
	for i := range values {
		if same[i] != values[i] {
			t.Fatalf("window 1 should copy values, got %v", same)
		}
	}
	if got := MovingAverage(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty output for empty input, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	flat := Sparkline([]float64{2, 2, 2})
	if len(flat) != 3 {
		t.Fatalf("expected 3 chars, got %q", flat)
	}
	line := Sparkline([]float64{0, 5, 10})
	if len(line) != 3 {
		t.Fatalf("expected 3 chars, got %q", line)
	}
	if line[0] != sparkChars[0] || line[2] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("extremes should map to extreme glyphs: %q", line)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No rounds") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}

	buf.Reset()
	rounds := []model.RoundAggregate{
		{RoundID: 1, Correct: 10, Incorrect: 0, DurationMs: 60000},
		{RoundID: 2, Correct: 5, Incorrect: 5, DurationMs: 60000},
	}
	if err := RenderSummary(&buf, rounds); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Rounds: 2") {
		t.Fatalf("expected round count, got %q", out)
	}
	if !strings.Contains(out, "Avg Accuracy: 75.0%") {
		t.Fatalf("expected avg accuracy 75.0%%, got %q", out)
	}
	if !strings.Contains(out, "Best Accuracy: 100.0%") {
		t.Fatalf("expected best accuracy 100.0%%, got %q", out)
	}
}

func TestRenderItemTableOrdersWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	items := []model.ItemStat{
		{Item: "strong", TrialCount: 10, Automaticity: 0.9},
		{Item: "weak", TrialCount: 4, Automaticity: 0.2},
		{Item: "mid", TrialCount: 6, Automaticity: 0.5},
	}
	if err := RenderItemTable(&buf, items); err != nil {
		t.Fatalf("render item table: %v", err)
	}
	out := buf.String()
	weakIdx := strings.Index(out, "weak")
	midIdx := strings.Index(out, "mid")
	strongIdx := strings.Index(out, "strong")
	if weakIdx == -1 || midIdx == -1 || strongIdx == -1 {
		t.Fatalf("missing rows: %q", out)
	}
	if !(weakIdx < midIdx && midIdx < strongIdx) {
		t.Fatalf("rows not weakest-first: %q", out)
	}

	buf.Reset()
	if err := RenderItemTable(&buf, nil); err != nil {
		t.Fatalf("render empty table: %v", err)
	}
	if !strings.Contains(buf.String(), "No item stats") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}
}

func TestRenderCurves(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCurves(&buf, nil, 5); err != nil {
		t.Fatalf("render empty curves: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for no rounds, got %q", buf.String())
	}

	rounds := make([]model.RoundAggregate, 0, 12)
	for i := 0; i < 12; i++ {
		rounds = append(rounds, model.RoundAggregate{
			RoundID:    int64(i + 1),
			Correct:    5 + i,
			Incorrect:  12 - i,
			DurationMs: 60000,
		})
	}
	if err := RenderCurvesWithSize(&buf, rounds, 3, 60, 6); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Accuracy") || !strings.Contains(out, "Answers/min") {
		t.Fatalf("expected both series labeled, got %q", out)
	}
	if !strings.Contains(out, "max") || !strings.Contains(out, "min") {
		t.Fatalf("expected axis labels, got %q", out)
	}
}
