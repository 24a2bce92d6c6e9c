// Package extract pulls structured values out of free text with fixed pattern
// rules. A miss is a normal outcome, never an error: the router skips
// persistence and still answers.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var glucosePattern = regexp.MustCompile(`\d+`)

// Glucose returns the first contiguous run of digits in the text as an
// integer. Zero and unparseable runs report a miss. No range validation
// happens here; the 80-300 mg/dL alert policy lives in the glucose agent
// instructions.
func Glucose(text string) (int, bool) {
	match := glucosePattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(match)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

var moodPattern = regexp.MustCompile(`happy|sad|excited|tired|anxious|stressed|neutral`)

// Mood returns the first known mood label found in the text, capitalized.
func Mood(text string) (string, bool) {
	match := moodPattern.FindString(strings.ToLower(text))
	if match == "" {
		return "", false
	}
	return strings.ToUpper(match[:1]) + match[1:], true
}
