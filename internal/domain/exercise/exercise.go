// Package exercise defines the seven exercise kinds and the pure answer
// evaluation logic shared by lesson flow and review sessions.
package exercise

// Type identifies the kind of an exercise and determines which response
// shape and check applies.
type Type string

// Supported exercise types.
const (
	TypeMultipleChoice Type = "multiple-choice"
	TypeFillBlank      Type = "fill-blank"
	TypeOrder          Type = "order"
	TypeCompare        Type = "compare"
	TypeMatch          Type = "match"
	TypeIdentify       Type = "identify"
	TypeImprove        Type = "improve"
)

// Exercise is a single content-defined task. Exercises are immutable input:
// the engine never mutates them. Only the fields relevant to the exercise's
// type are populated.
type Exercise struct {
	Type     Type   `json:"type"`
	Question string `json:"question,omitempty"`

	// multiple-choice, fill-blank, compare, improve
	Options []string `json:"options,omitempty"`
	Correct int      `json:"correct,omitempty"`

	// fill-blank: sentence with a blank the options fill
	Template string `json:"template,omitempty"`

	// order: items to arrange and their canonical order
	Items        []string `json:"items,omitempty"`
	CorrectOrder []int    `json:"correct_order,omitempty"`

	// match: left/right word pairs; index i on the left matches index i
	// on the right before shuffling for display
	Pairs [][2]string `json:"pairs,omitempty"`

	// identify: reference text and the correct character span, half-open
	Text         string `json:"text,omitempty"`
	CorrectRange [2]int `json:"correct_range,omitempty"`

	// Explanation is shown to the learner regardless of outcome.
	Explanation string `json:"explanation,omitempty"`
}

// Span is a half-open character range [Start, End) over an exercise's
// reference text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length returns the number of characters covered by the span.
func (s Span) Length() int {
	return s.End - s.Start
}

// Response carries a user's answer. Exactly one field group is meaningful,
// matching the exercise's type; the rest are left at their zero values.
type Response struct {
	// Selected is the chosen option index for multiple-choice, fill-blank,
	// compare, and improve exercises. A pointer distinguishes "option 0"
	// from "no selection".
	Selected *int `json:"selected,omitempty"`

	// Order is the user's arrangement for order exercises.
	Order []int `json:"order,omitempty"`

	// Pairs is the list of (left index, right index) pairings for match
	// exercises.
	Pairs [][2]int `json:"pairs,omitempty"`

	// Span is the selected character range for identify exercises.
	Span *Span `json:"span,omitempty"`
}
