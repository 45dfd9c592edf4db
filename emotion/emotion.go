// Package emotion classifies free-text input into a closed set of emotions
// using weighted keyword, emoji and modifier scoring.
package emotion

// Emotion is one member of the closed emotion enum.
type Emotion string

const (
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Anger    Emotion = "anger"
	Surprise Emotion = "surprise"
	Fear     Emotion = "fear"
	Love     Emotion = "love"
	Flirty   Emotion = "flirty"
	Neutral  Emotion = "neutral"
)

// All lists every emotion in enumeration order. Ties in classification are
// broken by this order.
var All = []Emotion{Joy, Sadness, Anger, Surprise, Fear, Love, Flirty, Neutral}

// Valid reports whether e is a member of the enum.
func (e Emotion) Valid() bool {
	for _, known := range All {
		if e == known {
			return true
		}
	}
	return false
}

// Parse converts a string into an Emotion.
func Parse(s string) (Emotion, bool) {
	e := Emotion(s)
	return e, e.Valid()
}

// Positive reports whether the emotion counts as a positive interaction.
func (e Emotion) Positive() bool {
	switch e {
	case Joy, Love, Flirty:
		return true
	}
	return false
}

// Result is the per-turn classification output.
type Result struct {
	Dominant  Emotion         `json:"dominant_emotion"`
	Intensity int             `json:"intensity"` // 0-100
	Scores    map[Emotion]int `json:"all_scores"`
}

// NeutralResult returns the result used for empty input.
func NeutralResult() Result {
	return Result{
		Dominant:  Neutral,
		Intensity: 0,
		Scores:    zeroScores(),
	}
}

func zeroScores() map[Emotion]int {
	scores := make(map[Emotion]int, len(All))
	for _, e := range All {
		scores[e] = 0
	}
	return scores
}
