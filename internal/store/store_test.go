package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/fermata/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "fermata.db")
	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestRecordTrialAndLoadItemStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seen := time.Unix(2000, 0).UTC()
	stat := model.ItemStat{Item: "C:fwd", TrialCount: 3, Automaticity: 0.42, LastSeen: seen}
	if err := st.RecordTrial(ctx, "fifths", stat, true, 350); err != nil {
		t.Fatalf("record trial: %v", err)
	}

	// Upsert replaces the stat row; the trial log grows.
	stat.TrialCount = 4
	stat.Automaticity = 0.5
	if err := st.RecordTrial(ctx, "fifths", stat, false, 900); err != nil {
		t.Fatalf("record trial: %v", err)
	}

	stats, err := st.LoadItemStats(ctx, "fifths")
	if err != nil {
		t.Fatalf("load item stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat, got %d", len(stats))
	}
	got := stats["C:fwd"]
	if got.TrialCount != 4 || got.Automaticity != 0.5 {
		t.Fatalf("unexpected stat %+v", got)
	}
	if !got.LastSeen.Equal(seen) {
		t.Fatalf("expected last seen %v, got %v", seen, got.LastSeen)
	}

	other, err := st.LoadItemStats(ctx, "chords")
	if err != nil {
		t.Fatalf("load item stats: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("modes must not share stats, got %d", len(other))
	}
}

func TestBaselineRoundtrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, found, err := st.LoadBaseline(ctx, "fifths"); err != nil || found {
		t.Fatalf("expected no baseline, got found=%v err=%v", found, err)
	}
	if err := st.SaveBaseline(ctx, "fifths", 420); err != nil {
		t.Fatalf("save baseline: %v", err)
	}
	baseline, found, err := st.LoadBaseline(ctx, "fifths")
	if err != nil || !found || baseline != 420 {
		t.Fatalf("expected 420, got %d found=%v err=%v", baseline, found, err)
	}

	if err := st.SaveBaseline(ctx, "fifths", 380); err != nil {
		t.Fatalf("save baseline: %v", err)
	}
	baseline, _, err = st.LoadBaseline(ctx, "fifths")
	if err != nil || baseline != 380 {
		t.Fatalf("expected 380 after replace, got %d err=%v", baseline, err)
	}

	if err := st.DeleteBaseline(ctx, "fifths"); err != nil {
		t.Fatalf("delete baseline: %v", err)
	}
	if _, found, err := st.LoadBaseline(ctx, "fifths"); err != nil || found {
		t.Fatalf("baseline should be gone, got found=%v err=%v", found, err)
	}
}

func TestScopeRoundtrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, found, err := st.LoadScope(ctx, "fifths"); err != nil || found {
		t.Fatalf("expected no scope, got found=%v err=%v", found, err)
	}
	if err := st.SaveScope(ctx, "fifths", []int{0, 2}); err != nil {
		t.Fatalf("save scope: %v", err)
	}
	indices, found, err := st.LoadScope(ctx, "fifths")
	if err != nil || !found {
		t.Fatalf("load scope: found=%v err=%v", found, err)
	}
	if len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
		t.Fatalf("unexpected scope %v", indices)
	}

	if err := st.SaveScope(ctx, "fifths", nil); err != nil {
		t.Fatalf("save empty scope: %v", err)
	}
	indices, found, err = st.LoadScope(ctx, "fifths")
	if err != nil || !found {
		t.Fatalf("load scope: found=%v err=%v", found, err)
	}
	if len(indices) != 0 {
		t.Fatalf("expected empty scope, got %v", indices)
	}
}

func TestInsertAndListRounds(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(0, 0).UTC()
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		end := start.Add(60 * time.Second)
		stats := model.RoundStats{
			StartedAt:  start,
			EndedAt:    end,
			Mode:       "fifths",
			Correct:    10 + i,
			Incorrect:  i,
			DurationMs: end.Sub(start).Milliseconds(),
		}
		if _, err := st.InsertRound(ctx, stats); err != nil {
			t.Fatalf("insert round %d: %v", i, err)
		}
	}
	if _, err := st.InsertRound(ctx, model.RoundStats{
		StartedAt: base, EndedAt: base.Add(time.Minute), Mode: "chords", DurationMs: 60000,
	}); err != nil {
		t.Fatalf("insert round: %v", err)
	}

	rounds, err := st.ListRounds(ctx, model.StatsConfig{Mode: "fifths"})
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(rounds))
	}
	for i := 1; i < len(rounds); i++ {
		if rounds[i].EndedAt.Before(rounds[i-1].EndedAt) {
			t.Fatalf("rounds not in ascending order: %v", rounds)
		}
	}
	if rounds[2].Correct != 12 {
		t.Fatalf("expected last round correct 12, got %d", rounds[2].Correct)
	}

	since := base.Add(90 * time.Second)
	filtered, err := st.ListRounds(ctx, model.StatsConfig{Mode: "fifths", Since: &since})
	if err != nil {
		t.Fatalf("list rounds since: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 rounds since %v, got %d", since, len(filtered))
	}
}

func TestClearMode(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stat := model.ItemStat{Item: "C:fwd", TrialCount: 1, Automaticity: 0.5, LastSeen: time.Unix(0, 0)}
	if err := st.RecordTrial(ctx, "fifths", stat, true, 300); err != nil {
		t.Fatalf("record trial: %v", err)
	}
	if err := st.SaveBaseline(ctx, "fifths", 400); err != nil {
		t.Fatalf("save baseline: %v", err)
	}
	if err := st.SaveScope(ctx, "fifths", []int{0}); err != nil {
		t.Fatalf("save scope: %v", err)
	}
	if err := st.RecordTrial(ctx, "chords", stat, true, 300); err != nil {
		t.Fatalf("record trial: %v", err)
	}

	if err := st.ClearMode(ctx, "fifths"); err != nil {
		t.Fatalf("clear mode: %v", err)
	}

	stats, err := st.LoadItemStats(ctx, "fifths")
	if err != nil {
		t.Fatalf("load item stats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected no stats after clear, got %d", len(stats))
	}
	if _, found, err := st.LoadBaseline(ctx, "fifths"); err != nil || found {
		t.Fatalf("baseline should be cleared, found=%v err=%v", found, err)
	}
	if _, found, err := st.LoadScope(ctx, "fifths"); err != nil || found {
		t.Fatalf("scope should be cleared, found=%v err=%v", found, err)
	}

	other, err := st.LoadItemStats(ctx, "chords")
	if err != nil {
		t.Fatalf("load item stats: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("clear must not cross modes, got %d stats", len(other))
	}
}
