package session

import "strings"

// Classifier labels a message with a follow-up intent. The default is a
// curated phrase matcher; swap it for a model-backed implementation
// without touching Manager callers.
type Classifier interface {
	// Classify returns the matched intent and a confidence in (0,1],
	// or ok=false when the text does not look like a follow-up.
	Classify(text string) (intent string, confidence float64, ok bool)
}

// Follow-up intents produced by the phrase classifier.
const (
	IntentDidntWork   = "that_didnt_work"
	IntentMoreHelp    = "need_more_help"
	IntentClarify     = "clarification"
	IntentStatusCheck = "status_check"
	IntentEscalate    = "escalation"
)

type phraseGroup struct {
	intent     string
	confidence float64
	phrases    []string
}

// PhraseClassifier matches curated phrase sets expressing negative
// feedback or continuation. Groups are checked in order; the generic
// clarification group carries the lowest confidence since its phrases
// ("what", "which") are the most ambiguous.
type PhraseClassifier struct {
	groups []phraseGroup
}

// NewPhraseClassifier builds the default follow-up phrase matcher.
func NewPhraseClassifier() *PhraseClassifier {
	return &PhraseClassifier{groups: []phraseGroup{
		{IntentDidntWork, 0.8, []string{
			"that didn't work", "that didnt work", "that doesn't work",
			"still not working", "still having issues", "didn't help",
			"doesn't help", "not working", "same problem", "still broken",
			"didn't fix",
		}},
		{IntentMoreHelp, 0.8, []string{
			"what else", "other options", "another way", "different solution",
			"more help", "something else", "alternative", "what now",
		}},
		{IntentStatusCheck, 0.8, []string{
			"what's the status", "any update", "how long", "when will",
			"is it ready", "progress", "update on",
		}},
		{IntentEscalate, 0.8, []string{
			"speak to someone", "call someone", "escalate", "manager",
			"human", "talk to a person",
		}},
		{IntentClarify, 0.5, []string{
			"what do you mean", "can you explain", "can you clarify",
			"i don't understand", "i dont understand", "confused",
		}},
	}}
}

func (c *PhraseClassifier) Classify(text string) (string, float64, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, g := range c.groups {
		for _, p := range g.phrases {
			if strings.Contains(lower, p) {
				return g.intent, g.confidence, true
			}
		}
	}
	return "", 0, false
}
