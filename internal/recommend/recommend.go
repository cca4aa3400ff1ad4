// Package recommend proposes practice-scope changes from learner stats.
package recommend

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/fermata/internal/learner"
	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/theory"
)

// Result is a computed scope advisory. Enabled is nil when no change
// is suggested; FluentRatio is always populated for display.
type Result struct {
	Enabled     []int
	NextGroup   *theory.Group
	FluentRatio float64
	Reason      string
}

// Stats provides read access to item stats. *learner.Model satisfies it.
type Stats interface {
	Stat(itemID string) model.ItemStat
}

// Compute evaluates the enabled groups' fluency and, when it clears the
// threshold and a disabled group remains, proposes the next group by
// ascending index.
func Compute(stats Stats, groups []theory.Group, enabled []int, threshold float64) Result {
	enabledSet := make(map[int]struct{}, len(enabled))
	for _, idx := range enabled {
		enabledSet[idx] = struct{}{}
	}

	fluent, total := 0, 0
	for _, g := range groups {
		if _, ok := enabledSet[g.Index]; !ok {
			continue
		}
		for _, id := range g.Items {
			total++
			if learner.Classify(stats.Stat(id)) == model.ClassFluent {
				fluent++
			}
		}
	}
	result := Result{}
	if total > 0 {
		result.FluentRatio = float64(fluent) / float64(total)
	}
	if total == 0 || result.FluentRatio < threshold {
		return result
	}

	var next *theory.Group
	for i := range groups {
		if _, ok := enabledSet[groups[i].Index]; ok {
			continue
		}
		if next == nil || groups[i].Index < next.Index {
			next = &groups[i]
		}
	}
	if next == nil {
		return result
	}

	expanded := make([]int, 0, len(enabled)+1)
	expanded = append(expanded, enabled...)
	expanded = append(expanded, next.Index)
	sort.Ints(expanded)
	result.Enabled = expanded
	result.NextGroup = next
	result.Reason = fmt.Sprintf("%.0f%% of enabled items are fluent; add %q next", result.FluentRatio*100, next.Label)
	return result
}

// WeakItems lists the lowest-automaticity items among ids, ties broken
// by the supplied ordering so output is deterministic.
func WeakItems(stats Stats, ids []string, n int, less func(a, b string) bool) []string {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		ai := stats.Stat(sorted[i]).Automaticity
		aj := stats.Stat(sorted[j]).Automaticity
		if ai == aj {
			return less(sorted[i], sorted[j])
		}
		return ai < aj
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
