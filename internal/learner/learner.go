// Package learner owns per-item automaticity statistics for one mode.
package learner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/store"
)

// ErrInvalidItem reports an identifier outside the mode's universe.
// Use errors.Is to check.
var ErrInvalidItem = errors.New("learner: unknown item")

// FluencyThreshold is the automaticity score at which an item counts
// as fluent.
const FluencyThreshold = 0.8

// Automaticity update constants. The learning rate is 2/(n+2) for trial
// count n, clamped below so late trials still move the score and above
// so a single trial never dominates. A correct answer's target blends a
// fixed correctness credit with normalized speed; with no baseline the
// speed term is neutral (full credit).
const (
	alphaMin    = 0.15
	alphaMax    = 0.5
	speedWeight = 0.5
)

// Model holds the learner statistics for one mode's item universe.
// It is the only mutator of item stats; every mutation persists before
// returning.
type Model struct {
	mode       string
	universe   map[string]struct{}
	stats      map[string]model.ItemStat
	baselineMs int64
	st         *store.Store
	now        func() time.Time
}

// New loads the persisted stats and baseline for a mode.
func New(ctx context.Context, st *store.Store, mode string, universe []string) (*Model, error) {
	stats, err := st.LoadItemStats(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load item stats: %w", err)
	}
	baselineMs, _, err := st.LoadBaseline(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	universeSet := make(map[string]struct{}, len(universe))
	for _, id := range universe {
		universeSet[id] = struct{}{}
	}
	return &Model{
		mode:       mode,
		universe:   universeSet,
		stats:      stats,
		baselineMs: baselineMs,
		st:         st,
		now:        time.Now,
	}, nil
}

// Baseline returns the motor baseline in milliseconds, 0 if absent.
func (m *Model) Baseline() int64 {
	return m.baselineMs
}

// SetBaseline replaces the motor baseline and persists it.
func (m *Model) SetBaseline(ctx context.Context, baselineMs int64) error {
	if baselineMs <= 0 {
		return fmt.Errorf("baseline must be positive, got %d", baselineMs)
	}
	if err := m.st.SaveBaseline(ctx, m.mode, baselineMs); err != nil {
		return err
	}
	m.baselineMs = baselineMs
	return nil
}

// RecordTrial records one attempt and updates the item's automaticity.
// The in-memory stat is updated even when persistence fails; the
// returned error then wraps store.ErrUnavailable.
func (m *Model) RecordTrial(ctx context.Context, itemID string, correct bool, latencyMs int64) (model.ItemStat, error) {
	if _, ok := m.universe[itemID]; !ok {
		return model.ItemStat{}, fmt.Errorf("%w: %q", ErrInvalidItem, itemID)
	}
	if latencyMs < 0 {
		return model.ItemStat{}, fmt.Errorf("latency must be >= 0, got %d", latencyMs)
	}

	stat := m.Stat(itemID)
	stat.TrialCount++
	stat.Automaticity = nextAutomaticity(stat.Automaticity, stat.TrialCount, correct, m.relativeSpeed(latencyMs))
	stat.LastSeen = m.now()
	m.stats[itemID] = stat

	if err := m.st.RecordTrial(ctx, m.mode, stat, correct, latencyMs); err != nil {
		return stat, err
	}
	return stat, nil
}

// Stat returns a snapshot for an item, a zero-trial default if never seen.
func (m *Model) Stat(itemID string) model.ItemStat {
	if stat, ok := m.stats[itemID]; ok {
		return stat
	}
	return model.ItemStat{Item: itemID}
}

// Classify derives the item's classification from its current stat.
func (m *Model) Classify(itemID string) model.Classification {
	return Classify(m.Stat(itemID))
}

// Classify derives a classification from a stat snapshot.
func Classify(stat model.ItemStat) model.Classification {
	switch {
	case stat.Automaticity >= FluencyThreshold:
		return model.ClassFluent
	case stat.TrialCount > 0:
		return model.ClassPracticing
	default:
		return model.ClassNew
	}
}

// Aggregate summarizes the provided items. TotalCount is the size of
// the identifier set, so callers can scope summaries to enabled items
// or to the whole universe.
func (m *Model) Aggregate(itemIDs []string) model.Aggregate {
	agg := model.Aggregate{TotalCount: len(itemIDs)}
	if len(itemIDs) == 0 {
		return agg
	}
	var sum float64
	for _, id := range itemIDs {
		stat := m.Stat(id)
		sum += stat.Automaticity
		if Classify(stat) == model.ClassFluent {
			agg.FluentCount++
		}
	}
	agg.AvgAutomaticity = sum / float64(len(itemIDs))
	return agg
}

// relativeSpeed normalizes latency against the baseline into [0, 1].
// With no baseline, speed contributes neutrally.
func (m *Model) relativeSpeed(latencyMs int64) float64 {
	if m.baselineMs <= 0 || latencyMs <= 0 {
		return 1.0
	}
	return clamp(float64(m.baselineMs)/float64(latencyMs), 0, 1)
}

func nextAutomaticity(current float64, trialCount int, correct bool, relSpeed float64) float64 {
	alpha := clamp(2.0/(float64(trialCount)+2.0), alphaMin, alphaMax)
	target := 0.0
	if correct {
		target = (1-speedWeight) + speedWeight*relSpeed
	}
	return clamp(current+alpha*(target-current), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
