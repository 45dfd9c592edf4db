package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier()
	first := c.Classify("I am so happy and excited!!! 😊")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify("I am so happy and excited!!! 😊"))
	}
	assert.Equal(t, Joy, first.Dominant)
	assert.Greater(t, first.Intensity, 20)
}

func TestClassify_EmptyInputIsNeutral(t *testing.T) {
	c := NewClassifier()
	for _, in := range []string{"", "   ", "\n\t"} {
		r := c.Classify(in)
		assert.Equal(t, Neutral, r.Dominant, "input %q", in)
		assert.Equal(t, 0, r.Intensity, "input %q", in)
	}
}

func TestClassify_NoMatchIsNeutral(t *testing.T) {
	r := NewClassifier().Classify("Hello! What time is it?")
	assert.Equal(t, Neutral, r.Dominant)
	assert.Equal(t, 0, r.Intensity)
	for _, e := range All {
		assert.Equal(t, 0, r.Scores[e])
	}
}

func TestClassify_SingleWeakMatchHasFloor(t *testing.T) {
	r := NewClassifier().Classify("that was nice")
	assert.Equal(t, Joy, r.Dominant)
	assert.Equal(t, 20, r.Intensity)
	assert.Equal(t, 1, r.Scores[Joy])
}

func TestClassify_LoveBeatsFlirtyForDeclaration(t *testing.T) {
	r := NewClassifier().Classify("I love you, you're beautiful")
	assert.Contains(t, []Emotion{Love, Joy}, r.Dominant)
	assert.Equal(t, Love, r.Dominant)
}

func TestClassify_TieBrokenByEnumOrder(t *testing.T) {
	// one joy keyword and one sadness keyword
	r := NewClassifier().Classify("happy but sad")
	require.Equal(t, r.Scores[Joy], r.Scores[Sadness])
	assert.Equal(t, Joy, r.Dominant)
}

func TestClassify_EmojiCountsEveryOccurrence(t *testing.T) {
	r := NewClassifier().Classify("😢😢")
	assert.Equal(t, Sadness, r.Dominant)
	assert.Equal(t, 4, r.Scores[Sadness])
	assert.Equal(t, 40, r.Intensity)
}

func TestClassify_WordBoundaries(t *testing.T) {
	// "hot" must not match inside "photo", "mad" not inside "made"
	r := NewClassifier().Classify("I made a photo")
	assert.Equal(t, Neutral, r.Dominant)
}

func TestClassify_IntensityCapped(t *testing.T) {
	r := NewClassifier().Classify("SO ANGRY!!! I hate this, furious, mad, pissed, rage 😡😡😡")
	assert.Equal(t, Anger, r.Dominant)
	assert.Equal(t, 100, r.Intensity)
}

func TestClassify_AmplifiersRaiseIntensity(t *testing.T) {
	c := NewClassifier()
	plain := c.Classify("I am scared")
	amped := c.Classify("I am really very scared!!")
	assert.Equal(t, Fear, plain.Dominant)
	assert.Equal(t, Fear, amped.Dominant)
	assert.Greater(t, amped.Intensity, plain.Intensity)
}

func TestEmotion_ParseAndPositive(t *testing.T) {
	e, ok := Parse("love")
	assert.True(t, ok)
	assert.Equal(t, Love, e)
	_, ok = Parse("bored")
	assert.False(t, ok)

	assert.True(t, Joy.Positive())
	assert.True(t, Flirty.Positive())
	assert.False(t, Sadness.Positive())
	assert.False(t, Neutral.Positive())
}
