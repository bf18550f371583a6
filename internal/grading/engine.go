package grading

import (
	"strings"
	"unicode/utf8"

	"trivia-service/internal/domain"
)

// similarityThreshold is the minimum Score for a fuzzy match. Fixed
// policy, not configurable per call.
const similarityThreshold = 85

// maxPointsPerDifficulty scales the top award: difficulty n pays n*10.
const maxPointsPerDifficulty = 10

// Evaluate grades a single submission against the correct answer and
// returns (correct, points awarded). It is pure and safe for
// concurrent use.
//
// Both answers are normalized (trimmed, lowercased) once up front.
// True/false questions compare the leading character only, so "t"
// matches "true". Question/answer questions require similarity >= 85.
// List questions split both sides on commas and greedily match each
// submitted item to the best remaining correct item, awarding
// maxPoints/n per match; the floor division means partial credit for
// non-divisible totals loses the remainder, but a perfect answer is
// bumped to the full award. Submitting more items than exist scores
// zero outright.
//
// Malformed input (empty correct answer, non-positive difficulty) and
// unrecognized question types yield (false, 0) rather than an error;
// callers that must distinguish unsupported types validate against the
// domain enum before calling.
func Evaluate(correctAnswer, userAnswer string, questionType domain.QuestionType, difficulty int) (bool, int) {
	correct := normalize(correctAnswer)
	user := normalize(userAnswer)

	if difficulty <= 0 || correct == "" {
		return false, 0
	}
	maxPoints := difficulty * maxPointsPerDifficulty

	switch questionType {
	case domain.TrueFalse:
		if user == "" {
			return false, 0
		}
		cr, _ := utf8.DecodeRuneInString(correct)
		ur, _ := utf8.DecodeRuneInString(user)
		if cr == ur {
			return true, maxPoints
		}
		return false, 0

	case domain.QuestionAnswer:
		if Score(correct, user) >= similarityThreshold {
			return true, maxPoints
		}
		return false, 0

	case domain.ListQuestion:
		return evaluateList(correct, user, maxPoints)

	default:
		return false, 0
	}
}

// evaluateList matches submitted items against a shrinking pool of
// correct items. Matching is greedy in submission order with no
// backtracking; ties keep the first pool item seen.
func evaluateList(correct, user string, maxPoints int) (bool, int) {
	correctItems := splitItems(correct)
	userItems := splitItems(user)

	n := len(correctItems)
	if n == 0 {
		return false, 0
	}
	// More items than exist is fully penalized so members cannot
	// enumerate every plausible answer.
	if len(userItems) > n {
		return false, 0
	}

	pointsPerItem := maxPoints / n

	pool := make([]string, n)
	copy(pool, correctItems)

	points := 0
	matched := 0
	for _, item := range userItems {
		bestScore := 0
		bestIdx := -1
		for i, candidate := range pool {
			if score := Score(item, candidate); score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestScore >= similarityThreshold {
			points += pointsPerItem
			matched++
			// A matched item cannot be claimed twice.
			pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
		}
	}

	// A complete answer gets the full award even when floor division
	// dropped a remainder along the way.
	if matched == n && len(userItems) == n {
		return true, maxPoints
	}
	return false, points
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func splitItems(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, len(parts))
	for i, part := range parts {
		items[i] = strings.TrimSpace(part)
	}
	return items
}
