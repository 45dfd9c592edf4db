package companion

import (
	"fmt"
	"strings"

	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
)

// ──────────────────────────────────────────────
// Prompt Context: input to the completion collaborator
// ──────────────────────────────────────────────

// maxPromptMemories bounds how many recalled memories are injected.
const maxPromptMemories = 5

// PromptContext is everything a Completer needs to answer in character.
type PromptContext struct {
	PersonaID         string
	DisplayName       string
	Tagline           string
	Tone              string
	Category          persona.Category
	Mood              emotion.Emotion
	Intensity         int
	IntimacyLevel     int
	FlirtLevel        int
	TotalInteractions int
	Memories          []string
	Input             string
	// FallbackText is the templated reply, offered as a style example.
	FallbackText string
}

// BuildPromptContext assembles the prompt context for one turn.
func BuildPromptContext(in SelectInput, resp Response) PromptContext {
	pc := PromptContext{
		Category:          resp.Category,
		IntimacyLevel:     in.Relationship.IntimacyLevel,
		FlirtLevel:        in.Relationship.FlirtLevel,
		TotalInteractions: in.Relationship.TotalInteractions,
		Input:             in.Input,
		FallbackText:      resp.Text,
	}
	if in.Persona != nil {
		pc.PersonaID = in.Persona.ID
		pc.DisplayName = in.Persona.DisplayName
		pc.Tagline = in.Persona.Tagline
		pc.Tone = in.Persona.Tone
	}
	if in.Emotion != nil {
		pc.Mood = in.Emotion.Dominant
		pc.Intensity = in.Emotion.Intensity
	}
	for i, m := range in.Memories {
		if i == maxPromptMemories {
			break
		}
		pc.Memories = append(pc.Memories, m.Content)
	}
	return pc
}

// SystemPrompt renders the persona, relationship and memory sections.
// Structure: [Role] + [Relationship] + [Mood] + [Memories] + [Rules]
func (pc PromptContext) SystemPrompt() string {
	var sections []string

	role := fmt.Sprintf("You are %s, an AI companion.", pc.DisplayName)
	if pc.Tagline != "" {
		role += " " + pc.Tagline
	}
	if pc.Tone != "" {
		role += fmt.Sprintf(" Your tone is %s.", pc.Tone)
	}
	sections = append(sections, role)

	sections = append(sections, fmt.Sprintf(
		"## Relationship\nYou have talked %d times. Intimacy %d/100, flirtiness %d/100.",
		pc.TotalInteractions, pc.IntimacyLevel, pc.FlirtLevel))

	if pc.Mood != "" && pc.Mood != emotion.Neutral {
		sections = append(sections, fmt.Sprintf(
			"## Mood\nThe user seems to feel %s (intensity %d/100). The message reads as %s.",
			pc.Mood, pc.Intensity, pc.Category))
	}

	if len(pc.Memories) > 0 {
		var b strings.Builder
		b.WriteString("## Things you remember\n")
		for _, m := range pc.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	rules := "## Rules\nStay in character. Reply in one to three short sentences."
	if pc.FallbackText != "" {
		rules += fmt.Sprintf(" A reply in your voice might be: %q", pc.FallbackText)
	}
	sections = append(sections, rules)

	return strings.Join(sections, "\n\n")
}
