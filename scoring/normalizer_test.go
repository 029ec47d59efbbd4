package scoring

import (
	"testing"

	"nirman/models"
)

func fourOptions() []models.Option {
	return []models.Option{
		{ID: "a", Text: "Mercury"},
		{ID: "b", Text: "Venus"},
		{ID: "c", Text: "Earth"},
		{ID: "d", Text: "Mars"},
	}
}

func trueFalseOptions() []models.Option {
	return []models.Option{
		{ID: "0", Text: "True"},
		{ID: "1", Text: "False"},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		answer  any
		q       models.Question
		correct bool
	}{
		{
			name:   "numeric answer matches numeric index",
			answer: float64(2),
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: true,
		},
		{
			name:   "numeric answer mismatch",
			answer: float64(1),
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: false,
		},
		{
			name:   "numeric answer matches string-wrapped index",
			answer: float64(3),
			q:       models.Question{Options: fourOptions(), CorrectOption: "3"},
			correct: true,
		},
		{
			name:   "string answer equals string form of correct option",
			answer: "2",
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: true,
		},
		{
			name:   "string answer is id of the correct option",
			answer: "c",
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: true,
		},
		{
			name:   "string answer is id of a wrong option",
			answer: "b",
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: false,
		},
		{
			name:   "string answer equals correct option text",
			answer: "earth",
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(2)},
			correct: true,
		},
		{
			name:   "option id answer resolved by position",
			answer: "a",
			q:       models.Question{Options: fourOptions(), CorrectOption: "0"},
			correct: true,
		},
		{
			name:   "boolean true against boolean correctOption",
			answer: true,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: true},
			correct: true,
		},
		{
			name:   "boolean false against boolean correctOption",
			answer: false,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: false},
			correct: true,
		},
		{
			name:   "boolean false wrong against boolean true",
			answer: false,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: true},
			correct: false,
		},
		{
			name:   "boolean answer against numeric correctOption 1 resolves via option text",
			answer: false,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: float64(1)},
			correct: true,
		},
		{
			name:   "boolean answer against numeric correctOption 0",
			answer: true,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: float64(0)},
			correct: true,
		},
		{
			name:   "boolean true wrong when correct index points at False",
			answer: true,
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: float64(1)},
			correct: false,
		},
		{
			name:   "string true against index pointing at True text",
			answer: "true",
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: float64(0)},
			correct: true,
		},
		{
			name:   "string false against index pointing at False text",
			answer: "false",
			q:       models.Question{Options: trueFalseOptions(), CorrectOption: float64(1)},
			correct: true,
		},
		{
			name:   "reversed true/false layout grades by text not position",
			answer: true,
			q: models.Question{
				Options:       []models.Option{{ID: "0", Text: "False"}, {ID: "1", Text: "True"}},
				CorrectOption: float64(1),
			},
			correct: true,
		},
		{
			name:   "nil correctOption never matches",
			answer: float64(0),
			q:       models.Question{Options: fourOptions(), CorrectOption: nil},
			correct: false,
		},
		{
			name:   "unsupported answer type is incorrect",
			answer: []any{"0"},
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(0)},
			correct: false,
		},
		{
			name:   "out of range index never matches",
			answer: "a",
			q:       models.Question{Options: fourOptions(), CorrectOption: float64(9)},
			correct: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.answer, tt.q); got != tt.correct {
				t.Errorf("Evaluate(%v, correctOption=%v) = %v, want %v",
					tt.answer, tt.q.CorrectOption, got, tt.correct)
			}
		})
	}
}

func TestEvaluateDoesNotMutateQuestion(t *testing.T) {
	q := models.Question{Options: fourOptions(), CorrectOption: "2"}
	Evaluate(float64(2), q)
	Evaluate("c", q)

	if q.CorrectOption != "2" {
		t.Errorf("correctOption mutated to %v", q.CorrectOption)
	}
	if len(q.Options) != 4 || q.Options[2].ID != "c" {
		t.Errorf("options mutated: %+v", q.Options)
	}
}

func TestNormalizeCorrectIndex(t *testing.T) {
	tests := []struct {
		in    any
		index int
		ok    bool
	}{
		{float64(2), 2, true},
		{int(3), 3, true},
		{int64(1), 1, true},
		{"2", 2, true},
		{" 4 ", 4, true},
		{true, 1, true},
		{false, 0, true},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		index, ok := NormalizeCorrectIndex(tt.in)
		if index != tt.index || ok != tt.ok {
			t.Errorf("NormalizeCorrectIndex(%v) = (%d, %v), want (%d, %v)",
				tt.in, index, ok, tt.index, tt.ok)
		}
	}
}

func TestPointsFor(t *testing.T) {
	q := models.Question{Points: 15}
	if got := PointsFor(q, true); got != 15 {
		t.Errorf("PointsFor correct = %d, want 15", got)
	}
	if got := PointsFor(q, false); got != 0 {
		t.Errorf("PointsFor incorrect = %d, want 0", got)
	}
	if got := PointsFor(models.Question{}, true); got != models.DefaultQuestionPoints {
		t.Errorf("PointsFor default = %d, want %d", got, models.DefaultQuestionPoints)
	}
}
