package emotion

import (
	"strings"
	"unicode"

	"github.com/cyberFlowTech/companion-sdk-go/internal/lexicon"
)

// ──────────────────────────────────────────────
// Emotion Classifier: deterministic weighted keyword scoring
// ──────────────────────────────────────────────

// Classifier maps free text to a dominant emotion and an intensity score.
// It holds no mutable state and is safe to share between sessions.
type Classifier struct {
	patterns map[Emotion]pattern
}

// NewClassifier creates a classifier with the built-in English tables.
func NewClassifier() *Classifier {
	return &Classifier{patterns: defaultPatterns()}
}

// Classify scores every emotion and picks the argmax. Empty or
// whitespace-only input is neutral with intensity 0.
func (c *Classifier) Classify(text string) Result {
	if strings.TrimSpace(text) == "" {
		return NeutralResult()
	}

	tokens := lexicon.Words(text)
	scores := zeroScores()
	for _, e := range All {
		p, ok := c.patterns[e]
		if !ok {
			continue
		}
		score := lexicon.CountAny(tokens, p.keywords) * keywordWeight
		for _, emoji := range p.emojis {
			score += strings.Count(text, emoji) * emojiWeight
		}
		score += lexicon.CountAny(tokens, p.modifiers) * modifierWeight
		scores[e] = score
	}

	dominant, top := Neutral, 0
	for _, e := range All {
		if scores[e] > top {
			dominant, top = e, scores[e]
		}
	}
	if top == 0 {
		return Result{Dominant: Neutral, Intensity: 0, Scores: scores}
	}

	intensity := baseIntensity(text, tokens) + top*scoreScale
	if intensity > maxIntensity {
		intensity = maxIntensity
	}
	if intensity < detectedFloor {
		intensity = detectedFloor
	}

	return Result{
		Dominant:  dominant,
		Intensity: intensity,
		Scores:    scores,
	}
}

func baseIntensity(text string, tokens []string) int {
	base := 0
	for _, w := range amplifierWords {
		if lexicon.CountPhrase(tokens, w) > 0 {
			base += amplifierBonus
		}
	}
	for _, m := range amplifierMarks {
		if strings.Contains(text, m) {
			base += amplifierBonus
		}
	}
	if hasShouting(text) {
		base += amplifierBonus
	}
	return base
}

// hasShouting reports an all-caps word of at least three letters.
func hasShouting(text string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if len([]rune(w)) < 3 {
			continue
		}
		if strings.ToUpper(w) == w && strings.ToLower(w) != w {
			return true
		}
	}
	return false
}
