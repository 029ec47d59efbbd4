// scoring/normalizer.go - answer grading for ambiguously encoded answers
package scoring

import (
	"strconv"
	"strings"

	"nirman/models"
)

// Evaluate reports whether a submitted answer matches the question's
// correct option. Neither side has a contractually fixed shape: the
// answer arrives as a JSON number, string or boolean, and correctOption
// may be an option index, a string-wrapped index, an option id or a
// boolean. The checks run in a fixed priority order and the first match
// wins; different question styles (index quizzes, option-id quizzes,
// true/false quizzes) rely on different rules.
//
// Evaluate never panics outward: any failure while interpreting
// pathological content grades the answer as incorrect.
func Evaluate(answer any, q models.Question) (correct bool) {
	defer func() {
		if r := recover(); r != nil {
			correct = false
		}
	}()

	correctIndex, haveIndex := NormalizeCorrectIndex(q.CorrectOption)

	switch v := answer.(type) {
	case float64:
		return matchNumeric(int(v), correctIndex, haveIndex, q.Options)
	case int:
		return matchNumeric(v, correctIndex, haveIndex, q.Options)
	case string:
		return matchString(v, correctIndex, haveIndex, q)
	case bool:
		return matchBool(v, correctIndex, haveIndex, q)
	}
	return false
}

// PointsFor returns the points an answer earns: the question's own value
// when set, the 10-point default otherwise, zero when incorrect.
func PointsFor(q models.Question, correct bool) int {
	if !correct {
		return 0
	}
	if q.Points > 0 {
		return q.Points
	}
	return models.DefaultQuestionPoints
}

// NormalizeCorrectIndex unwraps correctOption into an integer option
// index. It accepts plain numbers, string-wrapped numbers and booleans
// (true maps to 1). The second return is false when the value cannot be
// read as an index at all, in which case index-based rules are skipped.
func NormalizeCorrectIndex(correctOption any) (int, bool) {
	switch v := correctOption.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// matchNumeric grades numeric answers by index equality only.
func matchNumeric(answer int, correctIndex int, haveIndex bool, options []models.Option) bool {
	if haveIndex && answer == correctIndex {
		return true
	}
	// A numeric answer can also be an option id that happens to be a
	// number; resolve it to a position as the last resort.
	return matchByOptionPosition(strconv.Itoa(answer), correctIndex, haveIndex, options)
}

// matchString grades string answers: direct form, option id of the
// correct index, string form of the index, option-text equivalence,
// then the generic option-position fallback.
func matchString(answer string, correctIndex int, haveIndex bool, q models.Question) bool {
	if answer == asString(q.CorrectOption) {
		return true
	}

	if haveIndex && correctIndex >= 0 && correctIndex < len(q.Options) {
		correctOpt := q.Options[correctIndex]
		if correctOpt.ID == answer {
			return true
		}
		if answer == strconv.Itoa(correctIndex) {
			return true
		}
		// The answer may be the id of some option whose text equals the
		// correct option's text (duplicate wording across ids).
		if sel, ok := optionByID(q.Options, answer); ok &&
			strings.EqualFold(sel.Text, correctOpt.Text) {
			return true
		}
		// True/false style content often submits the literal option text.
		if strings.EqualFold(answer, correctOpt.Text) {
			return true
		}
	}

	return matchByOptionPosition(answer, correctIndex, haveIndex, q.Options)
}

// matchBool grades boolean answers. A boolean correctOption is taken at
// face value. An index-shaped correctOption defers to the text of the
// option it points at, so that [True, False] layouts grade the same as
// [False, True]. Only when neither applies does the numeric convention
// (1 means true) decide.
func matchBool(answer bool, correctIndex int, haveIndex bool, q models.Question) bool {
	if b, ok := q.CorrectOption.(bool); ok {
		return answer == b
	}

	if haveIndex && correctIndex >= 0 && correctIndex < len(q.Options) {
		optText := strings.ToLower(strings.TrimSpace(q.Options[correctIndex].Text))
		if optText == "true" || optText == "false" {
			return optText == strconv.FormatBool(answer)
		}
	}
	return answer == deriveBool(q.CorrectOption)
}

// matchByOptionPosition resolves the answer to an option position via
// its id (with numeric/string coercion both ways) and checks whether
// that position is the correct index.
func matchByOptionPosition(answer string, correctIndex int, haveIndex bool, options []models.Option) bool {
	if !haveIndex {
		return false
	}
	for i, opt := range options {
		if opt.ID == answer {
			return i == correctIndex
		}
		if n, err := strconv.Atoi(answer); err == nil {
			if optN, err2 := strconv.Atoi(opt.ID); err2 == nil && optN == n {
				return i == correctIndex
			}
		}
	}
	return false
}

func optionByID(options []models.Option, id string) (models.Option, bool) {
	for _, opt := range options {
		if opt.ID == id {
			return opt, true
		}
	}
	return models.Option{}, false
}

func deriveBool(correctOption any) bool {
	switch v := correctOption.(type) {
	case bool:
		return v
	case int:
		return v == 1
	case int64:
		return v == 1
	case float64:
		return v == 1
	case string:
		return v == "true" || v == "1"
	}
	return false
}

// asString renders correctOption the way dynamic content compares it:
// integers without a decimal point, booleans as true/false.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
