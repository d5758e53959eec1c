package emotion

import (
	"strings"

	"lukachat/model"
)

// crisisPhrases are matched as literal substrings, case-insensitively.
var crisisPhrases = []string{
	"suicide",
	"end it all",
	"kill myself",
	"i want to die",
	"i'm going to kill myself",
}

// IsCrisis reports whether the text contains self-harm crisis language.
// A positive result must short-circuit the pipeline before any external call.
func IsCrisis(text string) bool {
	t := strings.ToLower(text)
	for _, phrase := range crisisPhrases {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// keywordSet pairs a mood with its keyword list. Declared as a slice, not a
// map, so tie-breaking is stable: the first declared mood wins.
type keywordSet struct {
	mood     model.Mood
	keywords []string
}

var moodKeywords = []keywordSet{
	{model.MoodSad, []string{"sad", "depressed", "down", "miserable", "lonely", "tear", "tears"}},
	{model.MoodHappy, []string{"happy", "glad", "joy", "excited", "awesome", "great", "good", "fantastic"}},
	{model.MoodAngry, []string{"angry", "mad", "furious", "annoyed", "irritated"}},
	{model.MoodAnxious, []string{"anxious", "anxiety", "nervous", "worried", "panic"}},
	{model.MoodStressed, []string{"stressed", "overwhelmed", "burnout", "pressure"}},
}

// Classify maps free text to the mood whose keywords match most often.
// Matching is substring containment, not word-boundary tokenization, so a
// keyword inside a longer word still counts ("downpour" matches "down").
// That is the intended semantics, misclassifications included.
// Returns neutral when nothing matches.
func Classify(text string) model.Mood {
	t := strings.ToLower(text)

	best := model.MoodNeutral
	bestCount := 0
	for _, set := range moodKeywords {
		count := 0
		for _, keyword := range set.keywords {
			if strings.Contains(t, keyword) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = set.mood
		}
	}
	return best
}
