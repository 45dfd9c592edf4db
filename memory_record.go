package companion

import (
	"time"

	"github.com/cyberFlowTech/companion-sdk-go/emotion"
)

// ──────────────────────────────────────────────
// Memory Record: categorized long-term memory
// ──────────────────────────────────────────────

// MemoryCategory distinguishes what a stored input is about.
type MemoryCategory string

const (
	MemoryPreferences MemoryCategory = "preferences" // likes, dislikes, favorites
	MemoryPersonal    MemoryCategory = "personal"    // name, age, job, family
	MemoryEmotional   MemoryCategory = "emotional"   // feelings the user shared
	MemoryFunny       MemoryCategory = "funny"       // jokes, laughter
	MemoryIntimate    MemoryCategory = "intimate"    // affection toward the companion
	MemoryGeneral     MemoryCategory = "general"
)

// MemoryCategories lists every category in classification priority order.
var MemoryCategories = []MemoryCategory{
	MemoryPreferences,
	MemoryPersonal,
	MemoryEmotional,
	MemoryFunny,
	MemoryIntimate,
	MemoryGeneral,
}

// Valid reports whether c is a known category.
func (c MemoryCategory) Valid() bool {
	for _, k := range MemoryCategories {
		if c == k {
			return true
		}
	}
	return false
}

// MemoryRecord is a stored user input. Content, Category, Importance and
// CreatedAt never change after creation; access metadata is updated by
// retrieval.
type MemoryRecord struct {
	ID             string          `json:"id" yaml:"id"`
	Content        string          `json:"content" yaml:"content"`
	Category       MemoryCategory  `json:"category" yaml:"category"`
	Emotion        emotion.Emotion `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	Importance     int             `json:"importance" yaml:"importance"` // 0-100
	CreatedAt      time.Time       `json:"created_at" yaml:"createdAt"`
	AccessCount    int             `json:"access_count" yaml:"accessCount"`
	LastAccessedAt time.Time       `json:"last_accessed_at" yaml:"lastAccessedAt"`
}

// StoreHints override the rule-based classification of a new record.
type StoreHints struct {
	Emotion    emotion.Emotion
	Category   MemoryCategory
	Importance *int
	Intimate   bool
}

// Importance returns a pointer for StoreHints.Importance.
func Importance(v int) *int { return &v }
