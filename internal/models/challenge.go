package models

import (
	"time"
)

// DefaultHintAllowance is the number of hints granted per challenge.
const DefaultHintAllowance = 3

// CodeSnapshot is a timestamped copy of the candidate's code.
type CodeSnapshot struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// ChallengeCode holds the current buffer and the attempt history.
type ChallengeCode struct {
	Current string         `json:"current"`
	History []CodeSnapshot `json:"history"`
}

// UserChallenge tracks one user's progress on one coding challenge. The
// (userId, challengeId) pair is unique. Lifecycle:
// not-started -> in-progress (first attempt) -> completed (terminal).
type UserChallenge struct {
	UserID         string        `json:"user_id"`
	ChallengeID    string        `json:"challenge_id"`
	Completed      bool          `json:"completed"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Attempts       int           `json:"attempts"`
	Progress       int           `json:"progress"` // 0-100
	TimeSpent      int           `json:"time_spent"` // seconds
	Score          *int          `json:"score,omitempty"` // 0-100, set on completion
	HintsUsed      []string      `json:"hints_used"`
	RemainingHints int           `json:"remaining_hints"`
	Code           ChallengeCode `json:"code"`
	StartedAt      time.Time     `json:"started_at"`
	LastAttemptAt  *time.Time    `json:"last_attempt_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewUserChallenge returns a fresh record with the full hint allowance.
func NewUserChallenge(userID, challengeID string) *UserChallenge {
	now := time.Now()
	return &UserChallenge{
		UserID:         userID,
		ChallengeID:    challengeID,
		RemainingHints: DefaultHintAllowance,
		StartedAt:      now,
		UpdatedAt:      now,
	}
}

// RecordAttempt appends a timestamped snapshot to the history, overwrites
// the current buffer and bumps the attempt counter. No-op on a completed
// challenge.
func (c *UserChallenge) RecordAttempt(code string) bool {
	if c.Completed {
		return false
	}
	now := time.Now()
	c.Attempts++
	c.LastAttemptAt = &now
	c.UpdatedAt = now
	c.Code.Current = code
	c.Code.History = append(c.Code.History, CodeSnapshot{Code: code, Timestamp: now})
	return true
}

// UseHint consumes one hint. Returns false without mutating when the
// challenge is completed, the allowance is exhausted, or the hint was
// already used.
func (c *UserChallenge) UseHint(hintID string) bool {
	if c.Completed || c.RemainingHints <= 0 {
		return false
	}
	for _, used := range c.HintsUsed {
		if used == hintID {
			return false
		}
	}
	c.HintsUsed = append(c.HintsUsed, hintID)
	c.RemainingHints--
	c.UpdatedAt = time.Now()
	return true
}

// AddTimeSpent accumulates active editor time in seconds.
func (c *UserChallenge) AddTimeSpent(seconds int) {
	if seconds <= 0 || c.Completed {
		return
	}
	c.TimeSpent += seconds
	c.UpdatedAt = time.Now()
}

// Complete transitions the challenge to its terminal state: completed,
// progress 100, score set, final code snapshot appended. Returns false if
// already completed; there is no transition out of completed.
func (c *UserChallenge) Complete(finalCode string, score int) bool {
	if c.Completed {
		return false
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	now := time.Now()
	c.Completed = true
	c.CompletedAt = &now
	c.Progress = 100
	c.Score = &score
	c.UpdatedAt = now
	c.Code.Current = finalCode
	c.Code.History = append(c.Code.History, CodeSnapshot{Code: finalCode, Timestamp: now})
	return true
}
