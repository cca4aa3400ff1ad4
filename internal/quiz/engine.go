// Package quiz drives timed practice rounds: item scheduling, answer
// recording, and the session state machine.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/verte-zerg/fermata/internal/calibration"
	"github.com/verte-zerg/fermata/internal/learner"
	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/recommend"
	"github.com/verte-zerg/fermata/internal/store"
	"github.com/verte-zerg/fermata/internal/theory"
)

// ErrEmptyScope reports that no items are enabled. The engine fails
// safe to idle instead of selecting from an empty set.
var ErrEmptyScope = errors.New("quiz: no enabled items")

// Phase is the engine's lifecycle state.
type Phase int

// Engine phases.
const (
	PhaseIdle Phase = iota
	PhaseCalibrating
	PhaseActive
	PhaseRoundComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCalibrating:
		return "calibrating"
	case PhaseActive:
		return "active"
	case PhaseRoundComplete:
		return "roundComplete"
	}
	return "unknown"
}

// Feedback describes the outcome of the most recent submission.
type Feedback struct {
	ItemID    string
	Correct   bool
	Expected  string
	LatencyMs int64
	Warning   string
}

// Snapshot is a read-only view for presentation layers.
type Snapshot struct {
	Phase            Phase
	TimeRemaining    time.Duration
	CurrentItemID    string
	Question         string
	MasteredCount    int
	TotalEnabled     int
	LastFeedback     *Feedback
	CalibrationDone  int
	CalibrationTotal int
	Summary          *model.RoundSummary
}

// Engine owns one mode's practice session. It advances only through
// discrete calls (Start, Tick, SubmitAnswer, Stop, Continue); there is
// no background work, so clearing the caller's timer is all a stop
// needs to cancel.
type Engine struct {
	mode    *theory.Mode
	learner *learner.Model
	st      *store.Store

	rng           *rand.Rand
	now           func() time.Time
	roundDuration time.Duration
	threshold     float64
	weightFloor   float64

	phase         Phase
	enabledGroups []int
	enabled       []string

	startedAt   time.Time
	deadline    time.Time
	current     string
	prev        string
	presentedAt time.Time

	correct     int
	incorrect   int
	latencies   []int64
	newlyFluent []string

	calib        *calibration.Session
	calibShownAt time.Time

	lastFeedback *Feedback
	summary      *model.RoundSummary
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand substitutes the random source, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// New constructs an idle engine for a mode.
func New(mode *theory.Mode, lm *learner.Model, st *store.Store, cfg model.Config, opts ...Option) *Engine {
	e := &Engine{
		mode:          mode,
		learner:       lm,
		st:            st,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
		roundDuration: time.Duration(cfg.RoundSeconds) * time.Second,
		threshold:     cfg.ExpansionThreshold,
		weightFloor:   cfg.WeightFloor,
		phase:         PhaseIdle,
	}
	if e.roundDuration <= 0 {
		e.roundDuration = 60 * time.Second
	}
	if e.threshold <= 0 {
		e.threshold = 0.7
	}
	if e.weightFloor <= 0 {
		e.weightFloor = 0.1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEnabledGroups replaces the enabled scope with the given group
// indices. If the scope becomes empty mid-round, the round stops and
// ErrEmptyScope is returned.
func (e *Engine) SetEnabledGroups(indices []int) error {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)
	e.enabledGroups = sorted
	return e.setEnabledItems(e.mode.ItemsForGroups(sorted))
}

// SetEnabledItems replaces the enabled scope with explicit item IDs.
func (e *Engine) SetEnabledItems(itemIDs []string) error {
	e.enabledGroups = e.coveredGroups(itemIDs)
	return e.setEnabledItems(itemIDs)
}

func (e *Engine) setEnabledItems(itemIDs []string) error {
	sorted := make([]string, len(itemIDs))
	copy(sorted, itemIDs)
	sort.Strings(sorted)
	e.enabled = sorted
	if len(e.enabled) == 0 && (e.phase == PhaseActive || e.phase == PhaseRoundComplete) {
		e.Stop()
		return ErrEmptyScope
	}
	return nil
}

// coveredGroups returns the indices of groups fully contained in ids.
func (e *Engine) coveredGroups(ids []string) []int {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	var covered []int
	for _, g := range e.mode.Groups() {
		all := true
		for _, id := range g.Items {
			if _, ok := set[id]; !ok {
				all = false
				break
			}
		}
		if all && len(g.Items) > 0 {
			covered = append(covered, g.Index)
		}
	}
	return covered
}

// EnabledGroups returns the currently enabled group indices.
func (e *Engine) EnabledGroups() []int {
	out := make([]int, len(e.enabledGroups))
	copy(out, e.enabledGroups)
	return out
}

// Start begins a session: straight to an active round when a baseline
// exists, otherwise into calibration first.
func (e *Engine) Start() error {
	if e.phase != PhaseIdle {
		return fmt.Errorf("cannot start from %s", e.phase)
	}
	if len(e.enabled) == 0 {
		return ErrEmptyScope
	}
	e.lastFeedback = nil
	e.summary = nil
	if e.learner.Baseline() == 0 {
		e.phase = PhaseCalibrating
		e.calib = &calibration.Session{}
		e.calibShownAt = e.now()
		return nil
	}
	return e.beginRound()
}

// BeginCalibrationPrompt marks the moment a calibration stimulus became
// visible; the next submission's latency is measured from here.
func (e *Engine) BeginCalibrationPrompt() {
	if e.phase == PhaseCalibrating {
		e.calibShownAt = e.now()
	}
}

// Tick re-evaluates the round timer. The expiry test matches the one
// in SubmitAnswer, so an answer landing exactly on the deadline is
// scored before the round closes.
func (e *Engine) Tick() error {
	if e.phase == PhaseActive && e.expired() {
		return e.completeRound()
	}
	return nil
}

// SubmitAnswer handles one submission: a calibration tap while
// calibrating, or an answer to the current item while active.
func (e *Engine) SubmitAnswer(input string) error {
	switch e.phase {
	case PhaseCalibrating:
		return e.submitCalibration()
	case PhaseActive:
		return e.submitActive(input)
	default:
		return fmt.Errorf("no active round (phase %s)", e.phase)
	}
}

func (e *Engine) submitCalibration() error {
	e.calib.Record(e.now().Sub(e.calibShownAt).Milliseconds())
	e.calibShownAt = e.now()
	if !e.calib.Done() {
		return nil
	}
	baselineMs, err := e.calib.Baseline()
	e.calib = nil
	if err != nil {
		e.phase = PhaseIdle
		return err
	}
	if err := e.learner.SetBaseline(context.Background(), baselineMs); err != nil {
		e.phase = PhaseIdle
		return err
	}
	return e.beginRound()
}

func (e *Engine) submitActive(input string) error {
	now := e.now()
	latencyMs := now.Sub(e.presentedAt).Milliseconds()
	if latencyMs < 0 {
		latencyMs = 0
	}
	itemID := e.current
	correct := e.mode.Check(itemID, input)
	wasFluent := e.learner.Classify(itemID) == model.ClassFluent

	feedback := &Feedback{
		ItemID:    itemID,
		Correct:   correct,
		Expected:  e.mode.Answer(itemID),
		LatencyMs: latencyMs,
	}
	stat, err := e.learner.RecordTrial(context.Background(), itemID, correct, latencyMs)
	if err != nil {
		if !errors.Is(err, store.ErrUnavailable) {
			return err
		}
		// Trial is recorded in memory; durability resumes later.
		feedback.Warning = err.Error()
	}
	e.lastFeedback = feedback

	if correct {
		e.correct++
		e.latencies = append(e.latencies, latencyMs)
	} else {
		e.incorrect++
	}
	if !wasFluent && learner.Classify(stat) == model.ClassFluent {
		e.newlyFluent = append(e.newlyFluent, itemID)
	}

	if e.expired() {
		return e.completeRound()
	}
	return e.selectNext()
}

// Stop returns to idle from any state, discarding round tallies but
// never rolling back recorded trials.
func (e *Engine) Stop() {
	e.phase = PhaseIdle
	e.resetRound()
	e.calib = nil
	e.summary = nil
}

// Continue starts a fresh round from the round-complete state without
// recalibrating.
func (e *Engine) Continue() error {
	if e.phase != PhaseRoundComplete {
		return fmt.Errorf("cannot continue from %s", e.phase)
	}
	e.summary = nil
	e.lastFeedback = nil
	return e.beginRound()
}

// ComputeRecommendation evaluates the current scope against the
// learner stats.
func (e *Engine) ComputeRecommendation() recommend.Result {
	return recommend.Compute(e.learner, e.mode.Groups(), e.enabledGroups, e.threshold)
}

// WeakestItems lists the lowest-automaticity enabled items, for focus
// hints after a round.
func (e *Engine) WeakestItems(n int) []string {
	return recommend.WeakItems(e.learner, e.enabled, n, func(a, b string) bool { return a < b })
}

// ApplyRecommendation enables the recommended group set. A result with
// no suggested change is a no-op.
func (e *Engine) ApplyRecommendation(res recommend.Result) error {
	if res.Enabled == nil {
		return nil
	}
	return e.SetEnabledGroups(res.Enabled)
}

// State returns a read-only snapshot for presentation layers.
func (e *Engine) State() Snapshot {
	snap := Snapshot{
		Phase:        e.phase,
		TotalEnabled: len(e.enabled),
		LastFeedback: e.lastFeedback,
		Summary:      e.summary,
	}
	snap.MasteredCount = e.learner.Aggregate(e.enabled).FluentCount
	if e.phase == PhaseActive {
		snap.CurrentItemID = e.current
		if q, ok := e.mode.Question(e.current); ok {
			snap.Question = q
		}
		remaining := e.deadline.Sub(e.now())
		if remaining < 0 {
			remaining = 0
		}
		snap.TimeRemaining = remaining
	}
	if e.phase == PhaseCalibrating && e.calib != nil {
		snap.CalibrationDone = e.calib.Recorded()
		snap.CalibrationTotal = calibration.Prompts
	}
	return snap
}

func (e *Engine) beginRound() error {
	if len(e.enabled) == 0 {
		e.phase = PhaseIdle
		return ErrEmptyScope
	}
	e.resetRound()
	e.phase = PhaseActive
	e.startedAt = e.now()
	e.deadline = e.startedAt.Add(e.roundDuration)
	return e.selectNext()
}

func (e *Engine) selectNext() error {
	if len(e.enabled) == 0 {
		e.Stop()
		return ErrEmptyScope
	}
	e.prev = e.current
	e.current = pickItem(e.rng, e.enabled, e.weightFor, e.prev)
	e.presentedAt = e.now()
	return nil
}

func (e *Engine) weightFor(itemID string) float64 {
	w := 1 - e.learner.Stat(itemID).Automaticity
	if w < e.weightFloor {
		w = e.weightFloor
	}
	return w
}

func (e *Engine) expired() bool {
	return !e.now().Before(e.deadline)
}

func (e *Engine) completeRound() error {
	endedAt := e.now()
	e.summary = &model.RoundSummary{
		Correct:         e.correct,
		Incorrect:       e.incorrect,
		MedianLatencyMs: medianLatency(e.latencies),
		NewlyFluent:     e.newlyFluent,
	}
	e.phase = PhaseRoundComplete

	stats := model.RoundStats{
		StartedAt:  e.startedAt,
		EndedAt:    endedAt,
		Mode:       e.mode.Name,
		Correct:    e.correct,
		Incorrect:  e.incorrect,
		DurationMs: endedAt.Sub(e.startedAt).Milliseconds(),
	}
	if _, err := e.st.InsertRound(context.Background(), stats); err != nil {
		return err
	}
	return nil
}

func (e *Engine) resetRound() {
	e.correct = 0
	e.incorrect = 0
	e.latencies = nil
	e.newlyFluent = nil
	e.current = ""
	e.prev = ""
	e.presentedAt = time.Time{}
	e.startedAt = time.Time{}
	e.deadline = time.Time{}
}

func medianLatency(latencies []int64) int64 {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
