package companion

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
	"github.com/pkg/errors"
)

// ──────────────────────────────────────────────
// Session: per-user context owning state + memory
// ──────────────────────────────────────────────

// DefaultRetrieveLimit is how many memories a turn recalls.
const DefaultRetrieveLimit = 3

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	persistence   Persistence
	completer     Completer
	synthesizer   Synthesizer
	classifier    *emotion.Classifier
	logger        *log.Logger
	now           func() time.Time
	retrieveLimit int
	autoSave      bool
	sinks         []MilestoneSink
	memoryOpts    []MemoryOption
	selectorOpts  []SelectorOption
}

// WithPersistence sets the snapshot backend.
func WithPersistence(p Persistence) SessionOption {
	return func(c *sessionConfig) { c.persistence = p }
}

// WithCompleter sets the optional completion collaborator. Its text is
// preferred over the template; any error falls back to the template.
func WithCompleter(cp Completer) SessionOption {
	return func(c *sessionConfig) { c.completer = cp }
}

// WithSynthesizer sets the optional TTS collaborator. Each reply is
// synthesized with the response's voice parameters; failures leave the
// turn text-only.
func WithSynthesizer(sy Synthesizer) SessionOption {
	return func(c *sessionConfig) { c.synthesizer = sy }
}

// WithClassifier shares a classifier between sessions.
func WithClassifier(cl *emotion.Classifier) SessionOption {
	return func(c *sessionConfig) { c.classifier = cl }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *log.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithClock overrides time.Now for the session and the components it owns.
func WithClock(now func() time.Time) SessionOption {
	return func(c *sessionConfig) { c.now = now }
}

// WithRetrieveLimit sets how many memories each turn recalls.
func WithRetrieveLimit(n int) SessionOption {
	return func(c *sessionConfig) { c.retrieveLimit = n }
}

// WithAutoSave saves a snapshot after every turn.
func WithAutoSave() SessionOption {
	return func(c *sessionConfig) { c.autoSave = true }
}

// WithMilestoneSinks adds sinks notified when a milestone fires. Sinks run
// on the calling goroutine after Turn releases the session lock, so they may
// call back into the session.
func WithMilestoneSinks(sinks ...MilestoneSink) SessionOption {
	return func(c *sessionConfig) { c.sinks = append(c.sinks, sinks...) }
}

// WithMemoryOptions passes options to the session's MemoryStore.
func WithMemoryOptions(opts ...MemoryOption) SessionOption {
	return func(c *sessionConfig) { c.memoryOpts = append(c.memoryOpts, opts...) }
}

// WithSelectorOptions passes options to the session's ResponseSelector.
func WithSelectorOptions(opts ...SelectorOption) SessionOption {
	return func(c *sessionConfig) { c.selectorOpts = append(c.selectorOpts, opts...) }
}

// Session owns one user's RelationshipState and MemoryStore and references
// the shared persona registry and classifier. All methods are serialized by
// a single mutex, which RunConsolidation also takes.
type Session struct {
	mu sync.Mutex

	id           string
	registry     *persona.Registry
	classifier   *emotion.Classifier
	relationship *Relationship
	memory       *MemoryStore
	selector     *ResponseSelector

	persistence   Persistence
	completer     Completer
	synthesizer   Synthesizer
	sinks         []MilestoneSink
	logger        *log.Logger
	now           func() time.Time
	retrieveLimit int
	autoSave      bool
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	// Text is the final reply: completion text when available, else the template.
	Text           string
	FromCompletion bool
	Response       Response
	Emotion        emotion.Result
	Relationship   RelationshipState
	Milestones     []int
	Recalled       []MemoryRecord
	Stored         *MemoryRecord
	// Audio is the synthesized reply, nil without a Synthesizer.
	Audio []byte
}

// Stats summarizes a session.
type Stats struct {
	SessionID         string                 `json:"session_id"`
	PersonaID         string                 `json:"persona_id"`
	TotalInteractions int                    `json:"total_interactions"`
	IntimacyLevel     int                    `json:"intimacy_level"`
	FlirtLevel        int                    `json:"flirt_level"`
	Mood              emotion.Emotion        `json:"mood"`
	Milestones        []int                  `json:"milestones"`
	LastInteractionAt time.Time              `json:"last_interaction_at"`
	MemoryCount       int                    `json:"memory_count"`
	MemoryByCategory  map[MemoryCategory]int `json:"memory_by_category"`
}

// NewSession creates a fresh session on the registry's default persona. It
// performs no I/O; use OpenSession or Load to restore a saved snapshot.
func NewSession(id string, registry *persona.Registry, opts ...SessionOption) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, preconditionf("NewSession", nil, "empty session id")
	}
	if registry == nil {
		return nil, preconditionf("NewSession", nil, "nil persona registry")
	}

	cfg := sessionConfig{
		logger:        log.New(io.Discard),
		now:           time.Now,
		retrieveLimit: DefaultRetrieveLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.classifier == nil {
		cfg.classifier = emotion.NewClassifier()
	}
	if cfg.retrieveLimit < 0 {
		return nil, preconditionf("NewSession", nil, "negative retrieve limit %d", cfg.retrieveLimit)
	}

	s := &Session{
		id:            id,
		registry:      registry,
		classifier:    cfg.classifier,
		persistence:   cfg.persistence,
		completer:     cfg.completer,
		synthesizer:   cfg.synthesizer,
		sinks:         cfg.sinks,
		logger:        cfg.logger.With("session", id),
		now:           cfg.now,
		retrieveLimit: cfg.retrieveLimit,
		autoSave:      cfg.autoSave,
	}

	s.relationship = NewRelationship(registry,
		WithRelationshipLogger(s.logger),
		WithRelationshipClock(cfg.now),
	)
	memOpts := append([]MemoryOption{
		WithNamespace(id),
		WithMemoryLogger(s.logger),
		WithMemoryClock(cfg.now),
	}, cfg.memoryOpts...)
	s.memory = NewMemoryStore(memOpts...)
	s.selector = NewResponseSelector(registry, append([]SelectorOption{WithSelectorLogger(s.logger)}, cfg.selectorOpts...)...)

	return s, nil
}

// OpenSession creates a session and restores its saved snapshot, if any.
func OpenSession(ctx context.Context, id string, registry *persona.Registry, opts ...SessionOption) (*Session, error) {
	s, err := NewSession(id, registry, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Turn runs one conversational turn: classify, recall memories, select a
// reply, commit the relationship update, optionally prefer the completer's
// text and synthesize audio, then remember the input. Milestone sinks are
// notified after the session lock is released.
func (s *Session) Turn(ctx context.Context, input string) (*TurnResult, error) {
	s.mu.Lock()
	result, err := s.turnLocked(ctx, input)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, m := range result.Milestones {
		for _, sink := range s.sinks {
			sink.OnMilestoneReached(m, result.Relationship.TotalInteractions)
		}
	}
	return result, nil
}

func (s *Session) turnLocked(ctx context.Context, input string) (*TurnResult, error) {
	em := s.classifier.Classify(input)
	state, crossed := ApplyTurn(s.relationship.State(), TurnEvent{
		Emotion:               em,
		IsPositiveInteraction: em.Dominant.Positive(),
	}, s.now())

	profile, err := s.registry.Get(state.CurrentPersonaID)
	if err != nil {
		return nil, err
	}
	in := SelectInput{
		Input:        input,
		Emotion:      &em,
		Persona:      profile,
		Relationship: state,
	}
	resp, err := s.selector.Select(in)
	if err != nil {
		return nil, err
	}
	recalled, err := s.memory.Retrieve(input, s.retrieveLimit)
	if err != nil {
		return nil, err
	}
	in.Memories = recalled

	// Nothing below fails; only now is the interaction counted.
	s.relationship.commit(state, crossed)

	result := &TurnResult{
		Text:         resp.Text,
		Response:     resp,
		Emotion:      em,
		Relationship: state,
		Milestones:   crossed,
		Recalled:     recalled,
	}
	if s.completer != nil {
		s.complete(ctx, in, resp, result)
	}
	if s.synthesizer != nil {
		s.synthesize(ctx, result)
	}

	if strings.TrimSpace(input) != "" {
		rec := s.memory.Store(input, StoreHints{
			Emotion:  em.Dominant,
			Intimate: resp.Category == persona.CategoryFlirty,
		})
		result.Stored = &rec
	}

	s.logger.Debug("Turn complete",
		"persona", profile.ID,
		"emotion", em.Dominant,
		"intensity", em.Intensity,
		"category", resp.Category,
		"total", state.TotalInteractions,
	)

	if s.autoSave && s.persistence != nil {
		if err := s.saveLocked(ctx); err != nil {
			s.logger.Error("Autosave failed", "err", err)
		}
	}
	return result, nil
}

func (s *Session) synthesize(ctx context.Context, result *TurnResult) {
	audio, err := s.synthesizer.Synthesize(ctx, result.Text, result.Response.VoiceParams)
	if err != nil {
		s.logger.Warn("Synthesis failed, text only", "err", err)
		return
	}
	result.Audio = audio
}

func (s *Session) complete(ctx context.Context, in SelectInput, resp Response, result *TurnResult) {
	text, err := s.completer.Complete(ctx, BuildPromptContext(in, resp))
	switch {
	case errors.Is(err, ErrCompletionUnavailable):
		s.logger.Debug("Completion unavailable, using template", "err", err)
	case err != nil:
		s.logger.Warn("Completion failed, using template", "err", err)
	case strings.TrimSpace(text) == "":
		s.logger.Warn("Completion returned empty text, using template")
	default:
		result.Text = strings.TrimSpace(text)
		result.FromCompletion = true
	}
}

// SetPersona switches the active persona.
func (s *Session) SetPersona(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relationship.SetPersona(id)
}

// SetFlirtLevel sets the flirt level, clamped into [0,100].
func (s *Session) SetFlirtLevel(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationship.SetFlirtLevel(v)
}

// Persona returns the active persona profile.
func (s *Session) Persona() (*persona.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Get(s.relationship.State().CurrentPersonaID)
}

// State returns a copy of the relationship state.
func (s *Session) State() RelationshipState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relationship.State()
}

// Memories returns copies of the stored memory records.
func (s *Session) Memories() []MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Records()
}

// Reset restores relationship defaults. Memories are kept; use Forget.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationship.Reset()
}

// Forget clears every memory and returns how many were removed.
func (s *Session) Forget() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Forget()
}

// Consolidate enforces the global memory cap now.
func (s *Session) Consolidate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Consolidate()
}

// RunConsolidation consolidates memory every interval until ctx is done.
// It blocks; run it in a goroutine.
func (s *Session) RunConsolidation(ctx context.Context, interval time.Duration) {
	s.memory.RunConsolidation(ctx, interval, &s.mu)
}

// Stats summarizes the session.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.relationship.State()
	return Stats{
		SessionID:         s.id,
		PersonaID:         st.CurrentPersonaID,
		TotalInteractions: st.TotalInteractions,
		IntimacyLevel:     st.IntimacyLevel,
		FlirtLevel:        st.FlirtLevel,
		Mood:              st.CurrentMood,
		Milestones:        st.MilestonesReached,
		LastInteractionAt: st.LastInteractionAt,
		MemoryCount:       s.memory.Len(),
		MemoryByCategory:  s.memory.CountByCategory(),
	}
}

// Snapshot returns the normalized plain-data form of the session.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Version:      SnapshotVersion,
		SessionID:    s.id,
		Relationship: s.relationship.State(),
		Memories:     s.memory.Records(),
		SavedAt:      s.now(),
	}
	return snap.Normalize()
}

// Restore replaces the session state with snap.
func (s *Session) Restore(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked(snap)
}

func (s *Session) restoreLocked(snap *Snapshot) error {
	if snap == nil {
		return preconditionf("Session.Restore", nil, "nil snapshot")
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	// Validate both halves before committing either.
	rel, err := s.relationship.prepareRestore(snap.Relationship)
	if err != nil {
		return errors.Wrap(err, "restore relationship")
	}
	records, err := prepareRestore(snap.Memories)
	if err != nil {
		return errors.Wrap(err, "restore memories")
	}
	s.relationship.state = rel
	s.memory.commitRestore(records)
	return nil
}

// Save writes a snapshot through the persistence collaborator.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Session) saveLocked(ctx context.Context) error {
	if s.persistence == nil {
		return preconditionf("Session.Save", nil, "no persistence configured")
	}
	if err := s.persistence.Save(ctx, s.id, s.snapshotLocked()); err != nil {
		return errors.Wrapf(err, "save session %s", s.id)
	}
	return nil
}

// Load restores the saved snapshot. A missing snapshot leaves the session
// at defaults; no persistence configured is a no-op.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistence == nil {
		return nil
	}
	snap, err := s.persistence.Load(ctx, s.id)
	if err != nil {
		return errors.Wrapf(err, "load session %s", s.id)
	}
	if snap == nil {
		s.logger.Debug("No snapshot, starting fresh")
		return nil
	}
	if err := s.restoreLocked(snap); err != nil {
		return err
	}
	s.logger.Info("Session restored",
		"persona", snap.Relationship.CurrentPersonaID,
		"interactions", snap.Relationship.TotalInteractions,
		"memories", len(snap.Memories),
	)
	return nil
}
