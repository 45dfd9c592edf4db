package emotion

const (
	keywordWeight  = 1
	emojiWeight    = 2
	modifierWeight = 2

	amplifierBonus = 10
	scoreScale     = 10
	detectedFloor  = 20
	maxIntensity   = 100
)

// pattern holds the match tables for one emotion. Keywords and modifiers are
// matched on word boundaries, emojis as raw substrings.
type pattern struct {
	keywords  []string
	emojis    []string
	modifiers []string
}

func defaultPatterns() map[Emotion]pattern {
	return map[Emotion]pattern{
		Joy: {
			keywords: []string{
				"happy", "glad", "excited", "joy", "joyful", "great", "awesome",
				"wonderful", "yay", "fun", "delighted", "cheerful", "fantastic",
				"haha", "hahaha", "lol", "nice", "thrilled",
			},
			emojis:    []string{"😊", "😄", "😁", "😃", "🙂", "😆", "🎉", "😂"},
			modifiers: []string{"so happy", "really happy", "best day", "feel great", "feeling good", "made my day"},
		},
		Sadness: {
			keywords: []string{
				"sad", "unhappy", "depressed", "lonely", "cry", "crying", "cried",
				"tears", "heartbroken", "miserable", "sigh", "disappointed",
				"gloomy", "hopeless",
			},
			emojis:    []string{"😢", "😭", "😞", "😔", "💔", "☹"},
			modifiers: []string{"feel down", "feeling down", "so sad", "bad day", "forget it", "feel alone"},
		},
		Anger: {
			keywords: []string{
				"angry", "mad", "furious", "hate", "annoyed", "annoying", "irritated",
				"pissed", "rage", "useless", "terrible", "wtf", "bullshit", "stupid",
			},
			emojis:    []string{"😠", "😡", "🤬", "💢"},
			modifiers: []string{"so angry", "fed up", "sick of", "shut up"},
		},
		Surprise: {
			keywords: []string{
				"wow", "whoa", "omg", "surprised", "surprising", "shocked",
				"unexpected", "incredible", "unbelievable",
			},
			emojis:    []string{"😮", "😲", "😯", "🤯"},
			modifiers: []string{"no way", "can't believe", "oh my god"},
		},
		Fear: {
			keywords: []string{
				"scared", "afraid", "fear", "frightened", "terrified", "nervous",
				"anxious", "worried", "panic", "creepy",
			},
			emojis:    []string{"😨", "😰", "😱", "😟"},
			modifiers: []string{"so scared", "freaking out"},
		},
		Love: {
			keywords: []string{
				"love", "adore", "beautiful", "lovely", "darling", "sweetheart",
				"honey", "cherish", "precious", "heart",
			},
			emojis:    []string{"❤", "😍", "🥰", "💕", "💖", "💗"},
			modifiers: []string{"love you", "miss you", "i love", "mean the world"},
		},
		Flirty: {
			keywords: []string{
				"sexy", "hot", "kiss", "kisses", "flirt", "flirty", "babe", "baby",
				"cutie", "wink", "tease", "naughty", "cuddle", "seductive",
			},
			emojis:    []string{"😘", "😉", "😏", "💋", "🔥", "😜"},
			modifiers: []string{"come here", "kiss me", "you're hot", "so hot"},
		},
	}
}

// amplifiers raise the base intensity. Each is counted at most once.
var amplifierWords = []string{"very", "so", "really", "extremely", "totally", "super"}

var amplifierMarks = []string{"!!"}
