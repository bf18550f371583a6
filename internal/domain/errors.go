package domain

import "errors"

var (
	// ErrNoActiveQuestion is returned when a community has no open question.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrQuestionNotFound indicates a question ID is unknown or the
	// community has no unasked questions left to post.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCommunityNotConfigured is returned before a trivia channel is set.
	ErrCommunityNotConfigured = errors.New("community not configured")
	// ErrInvalidQuestionType rejects types outside the closed enum.
	ErrInvalidQuestionType = errors.New("invalid question type")
	// ErrInvalidDifficulty rejects difficulty outside 1..5.
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 5")
	// ErrEmptyQuestion rejects blank question prompts.
	ErrEmptyQuestion = errors.New("question prompt must not be empty")
	// ErrEmptyAnswer rejects blank correct answers.
	ErrEmptyAnswer = errors.New("answer must not be empty")
)
