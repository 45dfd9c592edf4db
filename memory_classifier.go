package companion

import (
	"github.com/cyberFlowTech/companion-sdk-go/internal/lexicon"
)

// ──────────────────────────────────────────────
// Memory Classifier: rule-based category + importance
// ──────────────────────────────────────────────

const (
	importanceBase       = 30
	importancePersonal   = 25
	importanceFirstTime  = 20
	importancePreference = 15
	importanceIntimate   = 30
	importanceMax        = 100
)

var memoryKeywords = map[MemoryCategory][]string{
	MemoryPreferences: {
		"like", "likes", "love", "loves", "favorite", "favourite", "prefer", "prefers",
		"enjoy", "enjoys", "hate", "hates", "dislike", "can't stand",
	},
	MemoryPersonal: {
		"my name", "call me", "years old", "my birthday", "i live", "i'm from", "i work",
		"my job", "my family", "my mom", "my dad", "my mother", "my father",
		"my sister", "my brother", "my wife", "my husband", "my dog", "my cat",
	},
	MemoryEmotional: {
		"feel", "feeling", "felt", "sad", "happy", "lonely", "anxious", "stressed",
		"depressed", "scared", "upset", "excited", "worried", "angry", "cry", "crying",
	},
	MemoryFunny: {
		"lol", "haha", "hahaha", "lmao", "funny", "joke", "hilarious", "rofl",
	},
	MemoryIntimate: {
		"kiss", "cuddle", "hug", "love you", "miss you", "sexy", "intimate",
		"hold you", "in bed", "darling", "baby",
	},
}

var (
	personalMarkers = []string{
		"my name", "call me", "years old", "my birthday", "i live", "i'm from", "i work", "my job",
	}
	firstTimeMarkers  = []string{"first time", "never"}
	preferenceMarkers = []string{"like", "love", "favorite", "favourite", "prefer", "hate"}
)

// ClassifyMemory returns the first category in priority order whose keywords
// occur in content, or general.
func ClassifyMemory(content string) MemoryCategory {
	tokens := lexicon.Words(content)
	for _, c := range MemoryCategories {
		if lexicon.ContainsAny(tokens, memoryKeywords[c]) {
			return c
		}
	}
	return MemoryGeneral
}

// ScoreImportance computes the creation-time importance of content. intimate
// forces the intimate bonus even without a keyword match.
func ScoreImportance(content string, intimate bool) int {
	tokens := lexicon.Words(content)
	score := importanceBase
	if lexicon.ContainsAny(tokens, personalMarkers) {
		score += importancePersonal
	}
	if lexicon.ContainsAny(tokens, firstTimeMarkers) {
		score += importanceFirstTime
	}
	if lexicon.ContainsAny(tokens, preferenceMarkers) {
		score += importancePreference
	}
	if intimate || lexicon.ContainsAny(tokens, memoryKeywords[MemoryIntimate]) {
		score += importanceIntimate
	}
	return clampImportance(score)
}

func clampImportance(v int) int {
	if v < 0 {
		return 0
	}
	if v > importanceMax {
		return importanceMax
	}
	return v
}
