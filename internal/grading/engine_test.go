package grading

import (
	"testing"

	"trivia-service/internal/domain"
)

func TestEvaluateTrueFalse(t *testing.T) {
	cases := []struct {
		name        string
		correct     string
		user        string
		difficulty  int
		wantCorrect bool
		wantPoints  int
	}{
		{"exact", "true", "true", 2, true, 20},
		{"leading character only", "true", "t", 2, true, 20},
		{"case insensitive", "True", "TRUE", 3, true, 30},
		{"wrong answer", "true", "false", 2, false, 0},
		{"empty user answer", "true", "", 2, false, 0},
		{"whitespace only user answer", "false", "   ", 4, false, 0},
		{"empty correct answer", "", "true", 2, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := Evaluate(tc.correct, tc.user, domain.TrueFalse, tc.difficulty)
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("Evaluate = (%v, %d), want (%v, %d)", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestEvaluateQuestionAnswer(t *testing.T) {
	cases := []struct {
		name        string
		correct     string
		user        string
		difficulty  int
		wantCorrect bool
		wantPoints  int
	}{
		{"exact", "Paris", "paris", 3, true, 30},
		{"close enough", "paris", "pari", 3, true, 30},
		{"similarity exactly 85", "abcdefghijklmnopqrst", "abcdefghijklmnopqxyz", 2, true, 20},
		{"similarity 84", "0123456789", "01234567x", 2, false, 0},
		{"nothing alike", "paris", "tokyo", 5, false, 0},
		{"empty user answer", "paris", "", 3, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := Evaluate(tc.correct, tc.user, domain.QuestionAnswer, tc.difficulty)
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("Evaluate = (%v, %d), want (%v, %d)", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestEvaluateNormalizationIsInvisible(t *testing.T) {
	c1, p1 := Evaluate("Paris", "  paris  ", domain.QuestionAnswer, 3)
	c2, p2 := Evaluate("Paris", "paris", domain.QuestionAnswer, 3)
	if c1 != c2 || p1 != p2 {
		t.Fatalf("whitespace changed the result: (%v,%d) vs (%v,%d)", c1, p1, c2, p2)
	}
	if !c1 || p1 != 30 {
		t.Fatalf("expected (true, 30), got (%v, %d)", c1, p1)
	}
}

func TestEvaluateList(t *testing.T) {
	cases := []struct {
		name        string
		correct     string
		user        string
		difficulty  int
		wantCorrect bool
		wantPoints  int
	}{
		{"perfect in order", "dog, cat, bird", "dog, cat, bird", 3, true, 30},
		{"perfect scrambled", "dog, cat, bird", "cat, dog, bird", 3, true, 30},
		{"single partial match", "dog, cat, bird", "dog", 3, false, 10},
		{"two of three", "dog, cat, bird", "bird, dog", 3, false, 20},
		{"too many items", "dog, cat", "dog, cat, bird", 4, false, 0},
		{"nothing matches", "dog, cat, bird", "fish", 3, false, 0},
		{"fuzzy items still match", "george washington, john adams", "george washingtin, john adams", 2, true, 20},
		{"empty user answer", "dog, cat", "", 2, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := Evaluate(tc.correct, tc.user, domain.ListQuestion, tc.difficulty)
			if correct != tc.wantCorrect || points != tc.wantPoints {
				t.Fatalf("Evaluate = (%v, %d), want (%v, %d)", correct, points, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestEvaluateListFloorDivisionLosesRemainder(t *testing.T) {
	// 10 points over 3 items is 3 per item; two matches earn 6, not 6.67.
	correct, points := Evaluate("red, green, blue", "red, green", domain.ListQuestion, 1)
	if correct || points != 6 {
		t.Fatalf("expected (false, 6), got (%v, %d)", correct, points)
	}

	// A complete answer is bumped past the rounding loss to the full award.
	correct, points = Evaluate("red, green, blue", "blue, red, green", domain.ListQuestion, 1)
	if !correct || points != 10 {
		t.Fatalf("expected (true, 10), got (%v, %d)", correct, points)
	}
}

func TestEvaluateListMatchedItemIsConsumed(t *testing.T) {
	// The second "dog" cannot re-match the already-claimed pool item.
	correct, points := Evaluate("dog, cat", "dog, dog", domain.ListQuestion, 2)
	if correct || points != 10 {
		t.Fatalf("expected (false, 10), got (%v, %d)", correct, points)
	}
}

func TestEvaluateListDuplicateCorrectItems(t *testing.T) {
	correct, points := Evaluate("dog, dog", "dog, dog", domain.ListQuestion, 2)
	if !correct || points != 20 {
		t.Fatalf("expected (true, 20), got (%v, %d)", correct, points)
	}
}

func TestEvaluateUnknownTypeAndBadDifficulty(t *testing.T) {
	if correct, points := Evaluate("paris", "paris", domain.QuestionType("ESSAY"), 3); correct || points != 0 {
		t.Fatalf("unknown type: expected (false, 0), got (%v, %d)", correct, points)
	}
	if correct, points := Evaluate("paris", "paris", domain.QuestionAnswer, 0); correct || points != 0 {
		t.Fatalf("zero difficulty: expected (false, 0), got (%v, %d)", correct, points)
	}
	if correct, points := Evaluate("paris", "paris", domain.QuestionAnswer, -2); correct || points != 0 {
		t.Fatalf("negative difficulty: expected (false, 0), got (%v, %d)", correct, points)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		correct, points := Evaluate("dog, cat, bird", "cat, dog", domain.ListQuestion, 3)
		if correct || points != 20 {
			t.Fatalf("run %d: expected (false, 20), got (%v, %d)", i, correct, points)
		}
	}
}

func TestEvaluateAwardIsAllOrNothingForScalarTypes(t *testing.T) {
	inputs := []struct {
		correct, user string
		qt            domain.QuestionType
	}{
		{"true", "t", domain.TrueFalse},
		{"true", "false", domain.TrueFalse},
		{"paris", "pari", domain.QuestionAnswer},
		{"paris", "rome", domain.QuestionAnswer},
	}
	for _, in := range inputs {
		for difficulty := 1; difficulty <= 5; difficulty++ {
			_, points := Evaluate(in.correct, in.user, in.qt, difficulty)
			if points != 0 && points != difficulty*10 {
				t.Fatalf("Evaluate(%q, %q, %s, %d) awarded %d, want 0 or %d",
					in.correct, in.user, in.qt, difficulty, points, difficulty*10)
			}
		}
	}
}
