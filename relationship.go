package companion

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
)

// ──────────────────────────────────────────────
// Relationship State: per-user progression
// ──────────────────────────────────────────────

const (
	DefaultIntimacyLevel = 10
	DefaultFlirtLevel    = 50

	// intimacyStep is added when the dominant emotion is love or joy.
	intimacyStep = 2
	levelMin     = 0
	levelMax     = 100

	maxRecentSignals = 20
)

// Milestones are the interaction counts that fire a one-time notification.
var Milestones = []int{10, 25, 50, 100, 200, 500}

// RelationshipState tracks the evolving relationship between persona and user.
type RelationshipState struct {
	TotalInteractions int             `json:"total_interactions" yaml:"totalInteractions"`
	IntimacyLevel     int             `json:"intimacy_level" yaml:"intimacyLevel"` // 0-100, default 10
	FlirtLevel        int             `json:"flirt_level" yaml:"flirtLevel"`       // 0-100, default 50
	CurrentPersonaID  string          `json:"current_persona_id" yaml:"currentPersonaId"`
	CurrentMood       emotion.Emotion `json:"current_mood" yaml:"currentMood"`
	MilestonesReached []int           `json:"milestones_reached" yaml:"milestonesReached"`
	LastInteractionAt time.Time       `json:"last_interaction_at" yaml:"lastInteractionAt"`
	RecentSignals     []Signal        `json:"recent_signals" yaml:"recentSignals"` // sliding window, max 20
}

// Signal records the affect of a single turn.
type Signal struct {
	Type      string          `json:"type" yaml:"type"` // positive|neutral
	Emotion   emotion.Emotion `json:"emotion" yaml:"emotion"`
	Intensity int             `json:"intensity" yaml:"intensity"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

// TurnEvent is the input to a relationship update.
type TurnEvent struct {
	Emotion               emotion.Result
	IsPositiveInteraction bool
}

// DefaultRelationshipState returns the initial state for a first-time user.
func DefaultRelationshipState(personaID string) RelationshipState {
	return RelationshipState{
		IntimacyLevel:     DefaultIntimacyLevel,
		FlirtLevel:        DefaultFlirtLevel,
		CurrentPersonaID:  personaID,
		CurrentMood:       emotion.Neutral,
		MilestonesReached: []int{},
		RecentSignals:     []Signal{},
	}
}

// Clone returns a deep copy.
func (s RelationshipState) Clone() RelationshipState {
	s.MilestonesReached = append([]int{}, s.MilestonesReached...)
	s.RecentSignals = append([]Signal{}, s.RecentSignals...)
	return s
}

// HasMilestone reports whether m has already fired.
func (s RelationshipState) HasMilestone(m int) bool {
	return slices.Contains(s.MilestonesReached, m)
}

// ApplyTurn is the pure relationship transition. It returns the new state and
// the milestones crossed by this call. A milestone is crossed only when the
// incremented interaction count equals it exactly; states loaded past a
// milestone never fire it retroactively.
func ApplyTurn(state RelationshipState, ev TurnEvent, now time.Time) (RelationshipState, []int) {
	next := state.Clone()

	next.TotalInteractions++
	if ev.Emotion.Dominant == emotion.Love || ev.Emotion.Dominant == emotion.Joy {
		next.IntimacyLevel = clampLevel(next.IntimacyLevel + intimacyStep)
	} else {
		next.IntimacyLevel = clampLevel(next.IntimacyLevel)
	}
	next.FlirtLevel = clampLevel(next.FlirtLevel)
	next.CurrentMood = ev.Emotion.Dominant
	if !next.CurrentMood.Valid() {
		next.CurrentMood = emotion.Neutral
	}
	next.LastInteractionAt = now

	sig := Signal{Type: "neutral", Emotion: next.CurrentMood, Intensity: ev.Emotion.Intensity, Timestamp: now}
	if ev.IsPositiveInteraction {
		sig.Type = "positive"
	}
	next.RecentSignals = append(next.RecentSignals, sig)
	if over := len(next.RecentSignals) - maxRecentSignals; over > 0 {
		next.RecentSignals = next.RecentSignals[over:]
	}

	var crossed []int
	for _, m := range Milestones {
		if next.TotalInteractions == m && !next.HasMilestone(m) {
			next.MilestonesReached = append(next.MilestonesReached, m)
			crossed = append(crossed, m)
		}
	}
	slices.Sort(next.MilestonesReached)

	return next, crossed
}

func clampLevel(v int) int {
	if v < levelMin {
		return levelMin
	}
	if v > levelMax {
		return levelMax
	}
	return v
}

// ──────────────────────────────────────────────
// Relationship: stateful owner with milestone delivery
// ──────────────────────────────────────────────

// RelationshipOption configures a Relationship.
type RelationshipOption func(*Relationship)

// WithMilestoneSink sets the sink notified synchronously when a milestone fires.
func WithMilestoneSink(sink MilestoneSink) RelationshipOption {
	return func(r *Relationship) { r.sink = sink }
}

// WithRelationshipLogger sets the logger.
func WithRelationshipLogger(l *log.Logger) RelationshipOption {
	return func(r *Relationship) { r.logger = l }
}

// WithRelationshipClock overrides time.Now.
func WithRelationshipClock(now func() time.Time) RelationshipOption {
	return func(r *Relationship) { r.now = now }
}

// Relationship owns one user's RelationshipState. It is not safe for
// concurrent use; Session serializes access.
type Relationship struct {
	state    RelationshipState
	registry *persona.Registry
	sink     MilestoneSink
	logger   *log.Logger
	now      func() time.Time
}

// NewRelationship creates a relationship at default values on the
// registry's default persona.
func NewRelationship(registry *persona.Registry, opts ...RelationshipOption) *Relationship {
	r := &Relationship{
		state:    DefaultRelationshipState(registry.Default()),
		registry: registry,
		logger:   log.New(io.Discard),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update applies one turn and delivers crossed milestones to the sink.
func (r *Relationship) Update(ev TurnEvent) RelationshipState {
	next, crossed := ApplyTurn(r.state, ev, r.now())
	r.commit(next, crossed)
	return r.state.Clone()
}

// commit installs a state computed by ApplyTurn and delivers its milestones.
func (r *Relationship) commit(next RelationshipState, crossed []int) {
	r.state = next.Clone()
	for _, m := range crossed {
		r.logger.Info("Milestone reached", "milestone", m, "total", next.TotalInteractions)
		if r.sink != nil {
			r.sink.OnMilestoneReached(m, next.TotalInteractions)
		}
	}
}

// SetPersona switches the active persona. Unknown ids are rejected.
func (r *Relationship) SetPersona(id string) error {
	if _, err := r.registry.Get(id); err != nil {
		return err
	}
	if id != r.state.CurrentPersonaID {
		r.logger.Debug("Persona switched", "from", r.state.CurrentPersonaID, "to", id)
	}
	r.state.CurrentPersonaID = id
	r.resetPersonaTransient()
	return nil
}

// resetPersonaTransient clears per-persona counters. None are tracked yet.
func (r *Relationship) resetPersonaTransient() {}

// SetFlirtLevel sets the flirt level, clamping silently into [0,100].
func (r *Relationship) SetFlirtLevel(v int) {
	r.state.FlirtLevel = clampLevel(v)
}

// State returns a copy of the current state.
func (r *Relationship) State() RelationshipState {
	return r.state.Clone()
}

// Restore replaces the state with a loaded snapshot. Levels are clamped; an
// unknown persona id is an error and leaves the state unchanged.
func (r *Relationship) Restore(state RelationshipState) error {
	next, err := r.prepareRestore(state)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

func (r *Relationship) prepareRestore(state RelationshipState) (RelationshipState, error) {
	if _, err := r.registry.Get(state.CurrentPersonaID); err != nil {
		return RelationshipState{}, err
	}
	next := state.Clone()
	next.IntimacyLevel = clampLevel(next.IntimacyLevel)
	next.FlirtLevel = clampLevel(next.FlirtLevel)
	if next.TotalInteractions < 0 {
		next.TotalInteractions = 0
	}
	if !next.CurrentMood.Valid() {
		next.CurrentMood = emotion.Neutral
	}
	slices.Sort(next.MilestonesReached)
	next.MilestonesReached = slices.Compact(next.MilestonesReached)
	return next, nil
}

// Reset restores default values, keeping the active persona.
func (r *Relationship) Reset() {
	r.state = DefaultRelationshipState(r.state.CurrentPersonaID)
	r.logger.Info("Relationship reset", "persona", r.state.CurrentPersonaID)
}
