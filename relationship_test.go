package companion

import (
	"testing"
	"time"

	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func turnWith(e emotion.Emotion) TurnEvent {
	return TurnEvent{
		Emotion:               emotion.Result{Dominant: e, Intensity: 40, Scores: map[emotion.Emotion]int{e: 3}},
		IsPositiveInteraction: e.Positive(),
	}
}

func testRegistry(t *testing.T) *persona.Registry {
	t.Helper()
	reg, err := persona.LoadDefault()
	require.NoError(t, err)
	return reg
}

// ════════════════════════════════════════════
// ApplyTurn
// ════════════════════════════════════════════

func TestApplyTurn_Basics(t *testing.T) {
	start := DefaultRelationshipState("sweet")
	next, crossed := ApplyTurn(start, turnWith(emotion.Love), fixedNow)

	assert.Equal(t, 1, next.TotalInteractions)
	assert.Equal(t, DefaultIntimacyLevel+2, next.IntimacyLevel)
	assert.Equal(t, emotion.Love, next.CurrentMood)
	assert.Equal(t, fixedNow, next.LastInteractionAt)
	assert.Empty(t, crossed)
	require.Len(t, next.RecentSignals, 1)
	assert.Equal(t, "positive", next.RecentSignals[0].Type)

	// input untouched
	assert.Equal(t, 0, start.TotalInteractions)
	assert.Empty(t, start.RecentSignals)
}

func TestApplyTurn_IntimacyOnlyForLoveAndJoy(t *testing.T) {
	for _, e := range emotion.All {
		next, _ := ApplyTurn(DefaultRelationshipState("sweet"), turnWith(e), fixedNow)
		if e == emotion.Love || e == emotion.Joy {
			assert.Equal(t, 12, next.IntimacyLevel, e)
		} else {
			assert.Equal(t, 10, next.IntimacyLevel, e)
		}
	}
}

func TestApplyTurn_IntimacyClamped(t *testing.T) {
	state := DefaultRelationshipState("sweet")
	state.IntimacyLevel = 99
	for i := 0; i < 10; i++ {
		state, _ = ApplyTurn(state, turnWith(emotion.Love), fixedNow)
		assert.LessOrEqual(t, state.IntimacyLevel, 100)
		assert.GreaterOrEqual(t, state.IntimacyLevel, 0)
		assert.LessOrEqual(t, state.FlirtLevel, 100)
	}
	assert.Equal(t, 100, state.IntimacyLevel)
}

func TestApplyTurn_MilestonesExactMatch(t *testing.T) {
	state := DefaultRelationshipState("sweet")
	var fired []int
	sizes := []int{}
	for i := 0; i < 60; i++ {
		var crossed []int
		state, crossed = ApplyTurn(state, turnWith(emotion.Neutral), fixedNow)
		fired = append(fired, crossed...)
		sizes = append(sizes, len(state.MilestonesReached))
	}
	assert.Equal(t, []int{10, 25, 50}, fired)
	assert.Equal(t, []int{10, 25, 50}, state.MilestonesReached)
	for i := 1; i < len(sizes); i++ {
		assert.GreaterOrEqual(t, sizes[i], sizes[i-1])
	}
}

func TestApplyTurn_LoadedPastMilestoneNeverFires(t *testing.T) {
	state := DefaultRelationshipState("sweet")
	state.TotalInteractions = 30 // imported past 10 and 25

	for i := 0; i < 5; i++ {
		var crossed []int
		state, crossed = ApplyTurn(state, turnWith(emotion.Joy), fixedNow)
		assert.Empty(t, crossed)
	}
	assert.Empty(t, state.MilestonesReached)
	assert.False(t, state.HasMilestone(10))
}

func TestApplyTurn_SignalWindow(t *testing.T) {
	state := DefaultRelationshipState("sweet")
	for i := 0; i < 25; i++ {
		state, _ = ApplyTurn(state, turnWith(emotion.Sadness), fixedNow.Add(time.Duration(i)*time.Minute))
	}
	require.Len(t, state.RecentSignals, 20)
	assert.Equal(t, fixedNow.Add(5*time.Minute), state.RecentSignals[0].Timestamp)
	assert.Equal(t, "neutral", state.RecentSignals[0].Type)
}

// ════════════════════════════════════════════
// Relationship owner
// ════════════════════════════════════════════

func TestRelationship_SinkReceivesMilestone(t *testing.T) {
	var got [][2]int
	sink := MilestoneSinkFunc(func(m, total int) { got = append(got, [2]int{m, total}) })
	rel := NewRelationship(testRegistry(t), WithMilestoneSink(sink), WithRelationshipClock(fixedClock))

	for i := 0; i < 10; i++ {
		rel.Update(turnWith(emotion.Neutral))
	}
	assert.Equal(t, [][2]int{{10, 10}}, got)
	assert.Equal(t, []int{10}, rel.State().MilestonesReached)
}

func TestRelationship_SetPersona(t *testing.T) {
	rel := NewRelationship(testRegistry(t))
	assert.Equal(t, "sweet", rel.State().CurrentPersonaID)

	require.NoError(t, rel.SetPersona("tsundere"))
	assert.Equal(t, "tsundere", rel.State().CurrentPersonaID)

	err := rel.SetPersona("robot")
	assert.ErrorIs(t, err, ErrUnknownPersona)
	assert.Equal(t, "tsundere", rel.State().CurrentPersonaID)
}

func TestRelationship_SetFlirtLevelClamps(t *testing.T) {
	rel := NewRelationship(testRegistry(t))
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {42, 42}, {100, 100}, {250, 100},
	}
	for _, tt := range tests {
		rel.SetFlirtLevel(tt.in)
		assert.Equal(t, tt.want, rel.State().FlirtLevel, "input %d", tt.in)
	}
}

func TestRelationship_StateIsCopy(t *testing.T) {
	rel := NewRelationship(testRegistry(t))
	for i := 0; i < 10; i++ {
		rel.Update(turnWith(emotion.Joy))
	}
	st := rel.State()
	st.MilestonesReached[0] = 999
	st.IntimacyLevel = 0
	assert.Equal(t, []int{10}, rel.State().MilestonesReached)
	assert.Equal(t, 30, rel.State().IntimacyLevel)
}

func TestRelationship_ResetKeepsPersona(t *testing.T) {
	rel := NewRelationship(testRegistry(t))
	require.NoError(t, rel.SetPersona("shy"))
	rel.Update(turnWith(emotion.Love))
	rel.SetFlirtLevel(90)

	rel.Reset()
	assert.Equal(t, DefaultRelationshipState("shy"), rel.State())
}

func TestRelationship_Restore(t *testing.T) {
	rel := NewRelationship(testRegistry(t))

	state := DefaultRelationshipState("sassy")
	state.IntimacyLevel = 140
	state.MilestonesReached = []int{25, 10, 10}
	require.NoError(t, rel.Restore(state))
	got := rel.State()
	assert.Equal(t, 100, got.IntimacyLevel)
	assert.Equal(t, []int{10, 25}, got.MilestonesReached)

	bad := DefaultRelationshipState("robot")
	assert.ErrorIs(t, rel.Restore(bad), ErrUnknownPersona)
}
