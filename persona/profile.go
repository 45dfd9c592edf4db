// Package persona defines the personality profiles a companion can operate
// under and the read-only registry that serves them.
package persona

import (
	"strings"

	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/pkg/errors"
)

// Category is an interaction category keyed into a profile's phrase pools.
type Category string

const (
	CategoryGreeting   Category = "greeting"
	CategoryCompliment Category = "compliment"
	CategoryTease      Category = "tease"
	CategoryComfort    Category = "comfort"
	CategoryFlirty     Category = "flirty"
	CategoryHappy      Category = "happy"
	CategoryDefault    Category = "default"
)

// RequiredCategories must each have at least one phrase in every profile.
var RequiredCategories = []Category{
	CategoryGreeting,
	CategoryCompliment,
	CategoryTease,
	CategoryComfort,
	CategoryFlirty,
	CategoryHappy,
	CategoryDefault,
}

// Voice ranges. Stability, SimilarityBoost and Style are unit values; Rate and
// Pitch are multipliers around 1.0.
const (
	MinUnit       = 0.0
	MaxUnit       = 1.0
	MinMultiplier = 0.5
	MaxMultiplier = 2.0
)

// VoiceParams is the synthesis tuning handed to the TTS collaborator.
type VoiceParams struct {
	Stability       float64 `yaml:"stability" json:"stability"`
	SimilarityBoost float64 `yaml:"similarityBoost" json:"similarity_boost"`
	Style           float64 `yaml:"style" json:"style"`
	Rate            float64 `yaml:"rate" json:"rate"`
	Pitch           float64 `yaml:"pitch" json:"pitch"`
}

// Clamp pulls every field back into its valid range.
func (v VoiceParams) Clamp() VoiceParams {
	return VoiceParams{
		Stability:       clampFloat(v.Stability, MinUnit, MaxUnit),
		SimilarityBoost: clampFloat(v.SimilarityBoost, MinUnit, MaxUnit),
		Style:           clampFloat(v.Style, MinUnit, MaxUnit),
		Rate:            clampFloat(v.Rate, MinMultiplier, MaxMultiplier),
		Pitch:           clampFloat(v.Pitch, MinMultiplier, MaxMultiplier),
	}
}

func (v VoiceParams) validate() error {
	units := map[string]float64{
		"stability":       v.Stability,
		"similarityBoost": v.SimilarityBoost,
		"style":           v.Style,
	}
	for name, value := range units {
		if value < MinUnit || value > MaxUnit {
			return errors.Errorf("voice %s %.2f outside [%.1f,%.1f]", name, value, MinUnit, MaxUnit)
		}
	}
	if v.Rate < MinMultiplier || v.Rate > MaxMultiplier {
		return errors.Errorf("voice rate %.2f outside [%.1f,%.1f]", v.Rate, MinMultiplier, MaxMultiplier)
	}
	if v.Pitch < MinMultiplier || v.Pitch > MaxMultiplier {
		return errors.Errorf("voice pitch %.2f outside [%.1f,%.1f]", v.Pitch, MinMultiplier, MaxMultiplier)
	}
	return nil
}

// Flair holds the per-persona rules that bend pool selection.
type Flair struct {
	// TeaseOnCompliment answers compliments from the tease pool.
	TeaseOnCompliment bool `yaml:"teaseOnCompliment" json:"tease_on_compliment"`
	// FlirtUnlockIntimacy is the intimacy level below which flirting is
	// answered from the tease pool. Zero disables the gate.
	FlirtUnlockIntimacy int `yaml:"flirtUnlockIntimacy" json:"flirt_unlock_intimacy"`
	// Signature is appended to every templated reply when set.
	Signature string `yaml:"signature" json:"signature,omitempty"`
}

// Profile is an immutable personality configuration.
type Profile struct {
	ID            string                     `yaml:"id" json:"id"`
	DisplayName   string                     `yaml:"displayName" json:"display_name"`
	Emoji         string                     `yaml:"emoji" json:"emoji"`
	Tagline       string                     `yaml:"tagline" json:"tagline"`
	Tone          string                     `yaml:"tone" json:"tone"`
	Voice         VoiceParams                `yaml:"voice" json:"voice"`
	Flair         Flair                      `yaml:"flair" json:"flair"`
	AnimationCues map[emotion.Emotion]string `yaml:"animationCues" json:"animation_cues,omitempty"`
	PhrasePools   map[Category][]string      `yaml:"phrases" json:"phrases"`
}

// Pool returns the phrases for a category.
func (p *Profile) Pool(c Category) []string {
	return p.PhrasePools[c]
}

func (p *Profile) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.Wrap(ErrConfiguration, "persona with empty id")
	}
	for _, c := range RequiredCategories {
		pool := p.PhrasePools[c]
		if len(pool) == 0 {
			return errors.Wrapf(ErrConfiguration, "persona %q: missing phrase pool %q", p.ID, c)
		}
		for i, phrase := range pool {
			if strings.TrimSpace(phrase) == "" {
				return errors.Wrapf(ErrConfiguration, "persona %q: blank phrase %d in pool %q", p.ID, i, c)
			}
		}
	}
	if err := p.Voice.validate(); err != nil {
		return errors.Wrapf(ErrConfiguration, "persona %q: %v", p.ID, err)
	}
	for e, cue := range p.AnimationCues {
		if !e.Valid() {
			return errors.Wrapf(ErrConfiguration, "persona %q: animation cue for unknown emotion %q", p.ID, e)
		}
		if strings.TrimSpace(cue) == "" {
			return errors.Wrapf(ErrConfiguration, "persona %q: empty animation cue for %q", p.ID, e)
		}
	}
	if p.Flair.FlirtUnlockIntimacy < 0 || p.Flair.FlirtUnlockIntimacy > 100 {
		return errors.Wrapf(ErrConfiguration, "persona %q: flirtUnlockIntimacy %d outside [0,100]", p.ID, p.Flair.FlirtUnlockIntimacy)
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
