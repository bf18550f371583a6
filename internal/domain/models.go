package domain

import (
	"strings"
	"time"
)

// QuestionType selects the grading algorithm for a question.
type QuestionType string

const (
	// TrueFalse questions are graded on the leading character of the answer.
	TrueFalse QuestionType = "TF"
	// QuestionAnswer questions are graded by fuzzy string similarity.
	QuestionAnswer QuestionType = "QA"
	// ListQuestion answers are comma-separated items graded with partial credit.
	ListQuestion QuestionType = "LQ"
)

// ParseQuestionType maps external input onto the closed enum.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(raw))) {
	case TrueFalse:
		return TrueFalse, nil
	case QuestionAnswer:
		return QuestionAnswer, nil
	case ListQuestion:
		return ListQuestion, nil
	default:
		return "", ErrInvalidQuestionType
	}
}

// Question is a member-submitted trivia question.
type Question struct {
	ID          int64        `json:"id"`
	CommunityID int64        `json:"communityId"`
	AuthorID    int64        `json:"authorId"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Answer      string       `json:"answer"`
	Difficulty  int          `json:"difficulty"` // 1..5, max award is Difficulty*10
	CreatedAt   time.Time    `json:"createdAt"`
	AskedAt     *time.Time   `json:"askedAt,omitempty"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty"`
	Closed      bool         `json:"closed"`
}

// Active reports whether the question is open for submissions at now.
func (q Question) Active(now time.Time) bool {
	return q.AskedAt != nil && !q.Closed && q.ExpiresAt != nil && q.ExpiresAt.After(now)
}

// Answer is one member's submission for a question. A member may
// resubmit; the latest text wins.
type Answer struct {
	ID          int64     `json:"id"`
	QuestionID  int64     `json:"questionId"`
	CommunityID int64     `json:"communityId"`
	UserID      int64     `json:"userId"`
	Text        string    `json:"text"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CommunityConfig holds where trivia is posted for a community.
type CommunityConfig struct {
	CommunityID   int64  `json:"communityId"`
	ChannelID     int64  `json:"channelId"`
	MentionRoleID *int64 `json:"mentionRoleId,omitempty"`
}

// LeaderboardEntry is one row of a community scoreboard.
type LeaderboardEntry struct {
	UserID int64 `json:"userId"`
	Points int   `json:"points"`
}

// GradedAnswer is the grading outcome for a single submission.
type GradedAnswer struct {
	UserID  int64 `json:"userId"`
	Correct bool  `json:"correct"`
	Points  int   `json:"points"`
}

// QuestionResults bundles everything announced when a question closes.
type QuestionResults struct {
	Question Question       `json:"question"`
	Graded   []GradedAnswer `json:"graded"`
}
