// Package intent maps caller-supplied labels and free-text messages to the
// closed set of actions the router dispatches on.
package intent

import (
	"regexp"
	"strings"
)

type Intent string

const (
	Validate     Intent = "validate"
	LogGlucose   Intent = "log_cgm"
	GeneratePlan Intent = "generate_plan"
	LogFood      Intent = "log_food"
	LogMood      Intent = "log_mood"
	GeneralQuery Intent = "general_query"
)

// AutoDetect is a caller-side sentinel asking the classifier to resolve the
// intent from the message instead.
const AutoDetect = "auto_detect"

// Parse matches an explicit wire label case-insensitively against the known
// intents. The AutoDetect sentinel is not an intent; callers check IsAuto
// before parsing.
func Parse(label string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(label))) {
	case Validate:
		return Validate, true
	case LogGlucose:
		return LogGlucose, true
	case GeneratePlan:
		return GeneratePlan, true
	case LogFood:
		return LogFood, true
	case LogMood:
		return LogMood, true
	case GeneralQuery:
		return GeneralQuery, true
	}
	return "", false
}

func IsAuto(label string) bool {
	return strings.ToLower(strings.TrimSpace(label)) == AutoDetect
}

var bareNumberPattern = regexp.MustCompile(`\b\d+\b`)

var moodVocabulary = []string{"mood", "feel", "happy", "sad", "tired", "excited", "anxious", "stressed"}

var foodVocabulary = []string{"eat", "food", "meal", "lunch", "dinner", "breakfast"}

var planVocabulary = []string{"plan", "meal plan", "generate", "suggest"}

// Detect classifies free text with ordered first-match rules. The order is a
// documented tie-break policy: the glucose rule pre-empts everything else (a
// bare number counts as a reading), and food vocabulary wins over plan
// vocabulary, so "plan my lunch" logs food rather than generating a plan.
func Detect(message string) Intent {
	lowered := strings.ToLower(message)

	if strings.Contains(lowered, "glucose") || strings.Contains(lowered, "blood sugar") || bareNumberPattern.MatchString(lowered) {
		return LogGlucose
	}
	if containsAny(lowered, moodVocabulary) {
		return LogMood
	}
	if containsAny(lowered, foodVocabulary) {
		return LogFood
	}
	if containsAny(lowered, planVocabulary) {
		return GeneratePlan
	}
	return GeneralQuery
}

func containsAny(text string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
