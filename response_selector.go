package companion

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/internal/lexicon"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
)

// ──────────────────────────────────────────────
// Response Selector: templated reply + side-effect cues
// ──────────────────────────────────────────────

var (
	greetingWords = []string{
		"hello", "hi", "hey", "heya", "hiya", "howdy", "yo", "greetings",
		"good morning", "good afternoon", "good evening", "what's up", "sup",
	}
	complimentWords = []string{
		"beautiful", "cute", "pretty", "gorgeous", "amazing", "lovely", "stunning",
		"adorable", "wonderful", "awesome", "smart", "perfect", "you're the best",
	}
	flirtingWords = []string{
		"sexy", "kiss", "love you", "hot", "cuddle", "babe", "baby", "date",
		"miss you", "want you", "flirt", "handsome",
	}
)

// defaultAnimationCues maps the dominant emotion to an animation tag when the
// persona has no override.
var defaultAnimationCues = map[emotion.Emotion]string{
	emotion.Joy:      "jiggle-light",
	emotion.Sadness:  "soft-glow",
	emotion.Anger:    "shake",
	emotion.Surprise: "pop",
	emotion.Fear:     "tremble",
	emotion.Love:     "hearts-burst",
	emotion.Flirty:   "wink-sparkle",
	emotion.Neutral:  "idle-sway",
}

// audioCues maps the answering pool to a short sound effect tag.
var audioCues = map[persona.Category]string{
	persona.CategoryGreeting:   "chime-hello",
	persona.CategoryCompliment: "giggle",
	persona.CategoryTease:      "hmph",
	persona.CategoryComfort:    "soft-sigh",
	persona.CategoryFlirty:     "kiss-pop",
	persona.CategoryHappy:      "sparkle",
	persona.CategoryDefault:    "ambient-hum",
}

// SelectInput is everything the selector looks at for one turn.
type SelectInput struct {
	Input        string
	Emotion      *emotion.Result
	Persona      *persona.Profile
	Relationship RelationshipState
	// Memories are carried through to prompt assembly; template selection
	// does not depend on them.
	Memories []MemoryRecord
}

// Response is the selected reply and its rendering hints.
type Response struct {
	Text string `json:"text"`
	// Category is the interaction category resolved by precedence.
	Category persona.Category `json:"category"`
	// Pool is the phrase pool actually used after persona flair.
	Pool         persona.Category    `json:"pool"`
	VoiceParams  persona.VoiceParams `json:"voice_params"`
	AnimationCue string              `json:"animation_cue"`
	AudioCue     string              `json:"audio_cue"`
}

// SelectorOption configures a ResponseSelector.
type SelectorOption func(*ResponseSelector)

// WithVoiceModulation shifts voice params by the dominant emotion. Off by
// default so each persona keeps a stable voice.
func WithVoiceModulation() SelectorOption {
	return func(s *ResponseSelector) { s.modulateVoice = true }
}

// WithSelectorLogger sets the logger.
func WithSelectorLogger(l *log.Logger) SelectorOption {
	return func(s *ResponseSelector) { s.logger = l }
}

// ResponseSelector picks a templated reply and cues. The only randomness is
// phrase choice, drawn from the registry's injected source.
type ResponseSelector struct {
	registry      *persona.Registry
	modulateVoice bool
	logger        *log.Logger
}

// NewResponseSelector creates a selector over registry.
func NewResponseSelector(registry *persona.Registry, opts ...SelectorOption) *ResponseSelector {
	s := &ResponseSelector{registry: registry, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categorize resolves the interaction category. Precedence: greeting,
// compliment, flirting, sadness (comfort), joy (happy), default.
func Categorize(input string, dominant emotion.Emotion) persona.Category {
	tokens := lexicon.Words(input)
	switch {
	case lexicon.ContainsAny(tokens, greetingWords):
		return persona.CategoryGreeting
	case lexicon.ContainsAny(tokens, complimentWords):
		return persona.CategoryCompliment
	case lexicon.ContainsAny(tokens, flirtingWords):
		return persona.CategoryFlirty
	case dominant == emotion.Sadness:
		return persona.CategoryComfort
	case dominant == emotion.Joy:
		return persona.CategoryHappy
	default:
		return persona.CategoryDefault
	}
}

// Select picks the reply for one turn. A nil emotion, a nil persona or a
// persona unknown to the registry is a precondition error.
func (s *ResponseSelector) Select(in SelectInput) (Response, error) {
	if in.Emotion == nil {
		return Response{}, preconditionf("ResponseSelector.Select", nil, "nil emotion result")
	}
	if in.Persona == nil {
		return Response{}, preconditionf("ResponseSelector.Select", nil, "nil persona")
	}
	p, err := s.registry.Get(in.Persona.ID)
	if err != nil {
		return Response{}, preconditionf("ResponseSelector.Select", err, "persona not in registry")
	}

	category := Categorize(in.Input, in.Emotion.Dominant)
	pool := applyFlair(p, category, in.Relationship)

	text, err := s.registry.PickPhrase(p.ID, pool)
	if err != nil {
		return Response{}, err
	}
	if p.Flair.Signature != "" {
		text += " " + p.Flair.Signature
	}

	voice := p.Voice
	if s.modulateVoice {
		voice = ModulateVoice(voice, in.Emotion.Dominant)
	}

	resp := Response{
		Text:         text,
		Category:     category,
		Pool:         pool,
		VoiceParams:  voice,
		AnimationCue: AnimationCueFor(p, in.Emotion.Dominant),
		AudioCue:     audioCues[pool],
	}
	s.logger.Debug("Response selected", "persona", p.ID, "category", category, "pool", pool, "cue", resp.AnimationCue)
	return resp, nil
}

// applyFlair redirects the category to the pool the persona answers from.
func applyFlair(p *persona.Profile, category persona.Category, rel RelationshipState) persona.Category {
	switch category {
	case persona.CategoryCompliment:
		if p.Flair.TeaseOnCompliment {
			return persona.CategoryTease
		}
	case persona.CategoryFlirty:
		if gate := p.Flair.FlirtUnlockIntimacy; gate > 0 && rel.IntimacyLevel < gate {
			return persona.CategoryTease
		}
	}
	return category
}

// AnimationCueFor returns the persona override for e, else the default cue.
func AnimationCueFor(p *persona.Profile, e emotion.Emotion) string {
	if cue, ok := p.AnimationCues[e]; ok {
		return cue
	}
	if cue, ok := defaultAnimationCues[e]; ok {
		return cue
	}
	return defaultAnimationCues[emotion.Neutral]
}
