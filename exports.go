package companion

// ──────────────────────────────────────────────
// Persona & emotion re-exports: stable public API
// ──────────────────────────────────────────────
//
// Re-exports the commonly used persona and emotion types so hosts can work
// from the root package:
//
//	reg, err := companion.LoadDefaultPersonas()
//	sess, err := companion.NewSession("alice", reg)
//
// For the full API (YAML loading options, classifier tables), import the
// sub-packages directly:
//
//	import "github.com/cyberFlowTech/companion-sdk-go/persona"
//	import "github.com/cyberFlowTech/companion-sdk-go/emotion"

import (
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
)

// ─── Core types ───

// Emotion is one of the closed set of classified emotions.
type Emotion = emotion.Emotion

// EmotionResult is the classifier output for one input.
type EmotionResult = emotion.Result

// EmotionClassifier maps free text to an EmotionResult.
type EmotionClassifier = emotion.Classifier

// PersonaProfile is an immutable personality configuration.
type PersonaProfile = persona.Profile

// PersonaRegistry is the read-only persona table.
type PersonaRegistry = persona.Registry

// PersonaCategory keys a profile's phrase pools.
type PersonaCategory = persona.Category

// VoiceParams is the synthesis tuning handed to a Synthesizer.
type VoiceParams = persona.VoiceParams

// ─── Constructors ───

// NewEmotionClassifier creates the keyword/emoji classifier.
var NewEmotionClassifier = emotion.NewClassifier

// NewPersonaRegistry validates profiles and builds a registry.
var NewPersonaRegistry = persona.New

// LoadDefaultPersonas loads the built-in persona table.
var LoadDefaultPersonas = persona.LoadDefault

// LoadPersonasFile loads a YAML persona table from disk.
var LoadPersonasFile = persona.LoadFile
