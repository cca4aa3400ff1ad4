package recommend

import (
	"strings"
	"testing"

	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/theory"
)

type fakeStats map[string]float64

func (f fakeStats) Stat(itemID string) model.ItemStat {
	score, ok := f[itemID]
	if !ok {
		return model.ItemStat{Item: itemID}
	}
	return model.ItemStat{Item: itemID, TrialCount: 5, Automaticity: score}
}

func testGroups() []theory.Group {
	return []theory.Group{
		{Index: 0, Label: "Naturals", Items: []string{"a", "b"}},
		{Index: 1, Label: "Accidentals", Items: []string{"c", "d"}},
		{Index: 2, Label: "Rare", Items: []string{"e"}},
	}
}

func TestComputeSuggestsNextGroup(t *testing.T) {
	stats := fakeStats{"a": 0.9, "b": 0.85}
	res := Compute(stats, testGroups(), []int{0}, 0.7)
	if res.FluentRatio != 1.0 {
		t.Fatalf("expected ratio 1.0, got %v", res.FluentRatio)
	}
	if res.NextGroup == nil || res.NextGroup.Index != 1 {
		t.Fatalf("expected group 1 suggested, got %+v", res.NextGroup)
	}
	if len(res.Enabled) != 2 || res.Enabled[0] != 0 || res.Enabled[1] != 1 {
		t.Fatalf("unexpected enabled set %v", res.Enabled)
	}
	if res.Reason == "" || !strings.Contains(res.Reason, "Accidentals") {
		t.Fatalf("reason should name the next group: %q", res.Reason)
	}
}

func TestComputeBelowThreshold(t *testing.T) {
	stats := fakeStats{"a": 0.9, "b": 0.2}
	res := Compute(stats, testGroups(), []int{0}, 0.7)
	if res.Enabled != nil {
		t.Fatalf("expected no suggestion, got %v", res.Enabled)
	}
	if res.FluentRatio != 0.5 {
		t.Fatalf("expected ratio 0.5, got %v", res.FluentRatio)
	}
}

func TestComputeAllGroupsEnabled(t *testing.T) {
	stats := fakeStats{"a": 0.9, "b": 0.9, "c": 0.9, "d": 0.9, "e": 0.9}
	res := Compute(stats, testGroups(), []int{0, 1, 2}, 0.7)
	if res.Enabled != nil || res.NextGroup != nil {
		t.Fatalf("expected no suggestion when all groups enabled, got %+v", res)
	}
	if res.FluentRatio != 1.0 {
		t.Fatalf("expected ratio 1.0, got %v", res.FluentRatio)
	}
}

func TestComputeEmptyScope(t *testing.T) {
	res := Compute(fakeStats{}, testGroups(), nil, 0.7)
	if res.Enabled != nil || res.FluentRatio != 0 {
		t.Fatalf("expected empty result for empty scope, got %+v", res)
	}
}

func TestComputeSkipsToLowestDisabledIndex(t *testing.T) {
	stats := fakeStats{"c": 0.9, "d": 0.95}
	res := Compute(stats, testGroups(), []int{1}, 0.7)
	if res.NextGroup == nil || res.NextGroup.Index != 0 {
		t.Fatalf("expected lowest disabled group 0, got %+v", res.NextGroup)
	}
	if len(res.Enabled) != 2 || res.Enabled[0] != 0 || res.Enabled[1] != 1 {
		t.Fatalf("unexpected enabled set %v", res.Enabled)
	}
}

func TestWeakItems(t *testing.T) {
	stats := fakeStats{"a": 0.9, "b": 0.1, "c": 0.1, "d": 0.5}
	less := func(x, y string) bool { return x < y }

	weak := WeakItems(stats, []string{"a", "b", "c", "d"}, 3, less)
	want := []string{"b", "c", "d"}
	if len(weak) != len(want) {
		t.Fatalf("expected %v, got %v", want, weak)
	}
	for i := range want {
		if weak[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, weak)
		}
	}

	if got := WeakItems(stats, []string{"a", "b"}, 10, less); len(got) != 2 {
		t.Fatalf("expected all items when n exceeds len, got %v", got)
	}
	if got := WeakItems(stats, []string{"a"}, 0, less); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
