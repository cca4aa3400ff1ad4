// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/fermata/internal/learner"
	"github.com/verte-zerg/fermata/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RoundMetrics computes accuracy and answers-per-minute for a round.
func RoundMetrics(correct, incorrect int, durationMs int64) (accuracy, perMinute float64) {
	den := float64(correct + incorrect)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	minutes := float64(durationMs) / 60000.0
	if minutes > 0 {
		perMinute = den / minutes
	}
	return accuracy, perMinute
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary for rounds.
func RenderSummary(w io.Writer, rounds []model.RoundAggregate) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	var totalAcc, totalPerMin float64
	bestAcc := 0.0
	for _, r := range rounds {
		acc, perMin := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		totalAcc += acc
		totalPerMin += perMin
		if acc > bestAcc {
			bestAcc = acc
		}
	}
	count := float64(len(rounds))
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d", len(rounds)),
		fmt.Sprintf("Avg Accuracy: %.1f%%", (totalAcc/count)*100),
		fmt.Sprintf("Best Accuracy: %.1f%%", bestAcc*100),
		fmt.Sprintf("Avg Answers/min: %.1f", totalPerMin/count),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderItemTable prints per-item stats, weakest first.
func RenderItemTable(w io.Writer, items []model.ItemStat) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No item stats found.")
		return err
	}
	sorted := make([]model.ItemStat, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Automaticity == sorted[j].Automaticity {
			return sorted[i].Item < sorted[j].Item
		}
		return sorted[i].Automaticity < sorted[j].Automaticity
	})

	if _, err := fmt.Fprintln(w, "Per-Item"); err != nil {
		return err
	}
	headers := []string{"Item", "Automaticity", "Class", "Trials"}
	rows := make([][]string, 0, len(sorted))
	for _, stat := range sorted {
		rows = append(rows, []string{
			stat.Item,
			fmt.Sprintf("%.2f", stat.Automaticity),
			string(learner.Classify(stat)),
			fmt.Sprintf("%d", stat.TrialCount),
		})
	}
	rightAlign := map[int]bool{1: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderCurves prints the accuracy learning curve across rounds.
func RenderCurves(w io.Writer, rounds []model.RoundAggregate, window int) error {
	return RenderCurvesWithSize(w, rounds, window, 0, 10)
}

// RenderCurvesWithSize prints the accuracy curve sized to a given total width.
func RenderCurvesWithSize(w io.Writer, rounds []model.RoundAggregate, window, totalWidth, height int) error {
	if len(rounds) == 0 {
		return nil
	}
	accs := make([]float64, len(rounds))
	rates := make([]float64, len(rounds))
	for i, r := range rounds {
		acc, perMin := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		accs[i] = acc * 100
		rates[i] = perMin
	}
	accs = MovingAverage(accs, window)
	rates = MovingAverage(rates, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Learning Curves", []Series{
		{Name: "Accuracy", Values: accs},
		{Name: "Answers/min", Values: rates},
	}, width, height)
}
