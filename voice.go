package companion

import (
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
)

// VoiceDelta is an additive adjustment to a persona's voice for one emotion.
type VoiceDelta struct {
	Stability float64
	Style     float64
	Rate      float64
	Pitch     float64
}

// emotionVoiceDeltas shift synthesis per dominant emotion. Neutral has none.
var emotionVoiceDeltas = map[emotion.Emotion]VoiceDelta{
	emotion.Joy:      {Stability: -0.10, Style: 0.15, Rate: 0.05, Pitch: 0.05},
	emotion.Sadness:  {Stability: 0.15, Style: -0.10, Rate: -0.10, Pitch: -0.05},
	emotion.Anger:    {Stability: -0.20, Style: 0.20, Rate: 0.10},
	emotion.Surprise: {Stability: -0.10, Style: 0.10, Pitch: 0.10},
	emotion.Fear:     {Stability: -0.15, Rate: 0.05, Pitch: 0.05},
	emotion.Love:     {Stability: 0.05, Style: 0.10, Rate: -0.05},
	emotion.Flirty:   {Style: 0.20, Rate: -0.05, Pitch: -0.05},
}

// VoiceDeltaFor returns the modulation delta for e.
func VoiceDeltaFor(e emotion.Emotion) VoiceDelta {
	return emotionVoiceDeltas[e]
}

// ModulateVoice applies the emotion delta to base and clamps every field
// back into range.
func ModulateVoice(base persona.VoiceParams, e emotion.Emotion) persona.VoiceParams {
	d := VoiceDeltaFor(e)
	return persona.VoiceParams{
		Stability:       base.Stability + d.Stability,
		SimilarityBoost: base.SimilarityBoost,
		Style:           base.Style + d.Style,
		Rate:            base.Rate + d.Rate,
		Pitch:           base.Pitch + d.Pitch,
	}.Clamp()
}
