// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Mode               string
	RoundSeconds       int
	ExpansionThreshold float64
	WeightFloor        float64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// ItemStat holds the persisted learning state for one item.
type ItemStat struct {
	Item         string
	TrialCount   int
	Automaticity float64
	LastSeen     time.Time
}

// Classification labels an item's current learning state.
type Classification string

// Classification values, derived from ItemStat.
const (
	ClassNew        Classification = "new"
	ClassPracticing Classification = "practicing"
	ClassFluent     Classification = "fluent"
)

// Aggregate summarizes a set of items.
type Aggregate struct {
	FluentCount     int
	TotalCount      int
	AvgAutomaticity float64
}

// RoundStats captures a completed practice round.
type RoundStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Mode       string
	Correct    int
	Incorrect  int
	DurationMs int64
}

// RoundAggregate summarizes a round for reporting.
type RoundAggregate struct {
	RoundID    int64
	EndedAt    time.Time
	Correct    int
	Incorrect  int
	DurationMs int64
}

// RoundSummary is the ephemeral round-end display payload.
type RoundSummary struct {
	Correct         int
	Incorrect       int
	MedianLatencyMs int64
	NewlyFluent     []string
}
