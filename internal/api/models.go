package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/coach"
	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/exercise"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfileResponse is the player profile as returned by the API: the
// aggregate plus the derived level-progress percentage.
type ProfileResponse struct {
	XP              int      `json:"xp"`
	Level           int      `json:"level"`
	ProgressPercent float64  `json:"progress_percent"`
	Hearts          int      `json:"hearts"`
	MaxHearts       int      `json:"max_hearts"`
	Tokens          int      `json:"tokens"`
	CurrentStreak   int      `json:"current_streak"`
	LongestStreak   int      `json:"longest_streak"`
	IsPremium       bool     `json:"is_premium"`
	PremiumBooks    []string `json:"premium_books"`
	TotalCorrect    int      `json:"total_correct"`
	TotalWrong      int      `json:"total_wrong"`
	PerfectLessons  int      `json:"perfect_lessons"`
	Achievements    []string `json:"achievements"`

	CompletedLessons   []string               `json:"completed_lessons"`
	ReviewQueueLength  int                    `json:"review_queue_length"`
	OnboardingComplete bool                   `json:"onboarding_complete"`
	LastHeartLost      *time.Time             `json:"last_heart_lost,omitempty"`
	ReviewQueue        []domain.ReviewPointer `json:"review_queue"`
}

// AnswerRequest is one graded exercise attempt: the pointer locating the
// exercise and the learner's response.
type AnswerRequest struct {
	Book     string `json:"book"     validate:"required"`
	Chapter  int    `json:"chapter"  validate:"gte=0"`
	Lesson   int    `json:"lesson"   validate:"gte=0"`
	Exercise int    `json:"exercise" validate:"gte=0"`

	Response exercise.Response `json:"response"`

	// Reviewing marks the attempt as part of a review session, so a correct
	// answer resolves the queue entry instead of only awarding experience.
	Reviewing bool `json:"reviewing"`
}

// AnswerResponse reports the evaluation outcome and the updated profile.
type AnswerResponse struct {
	Correct     bool            `json:"correct"`
	Explanation string          `json:"explanation,omitempty"`
	Profile     ProfileResponse `json:"profile"`
}

// LessonCompleteRequest marks a lesson as finished.
type LessonCompleteRequest struct {
	Book    string `json:"book"    validate:"required"`
	Chapter int    `json:"chapter" validate:"gte=0"`
	Lesson  int    `json:"lesson"  validate:"gte=0"`

	// Perfect marks a zero-mistake run, which earns the bonus award.
	Perfect bool `json:"perfect"`
}

// LessonCompleteResponse reports whether the completion was genuinely new.
type LessonCompleteResponse struct {
	NewlyCompleted bool            `json:"newly_completed"`
	Profile        ProfileResponse `json:"profile"`
}

// TokenSpendResponse reports the outcome of a token spend.
type TokenSpendResponse struct {
	Spent  bool `json:"spent"`
	Tokens int  `json:"tokens"`
}

// SettingsRequest is a bulk settings update; absent fields are unchanged.
type SettingsRequest struct {
	OnboardingComplete      *bool   `json:"onboarding_complete,omitempty"`
	DailyChallengeCompleted *string `json:"daily_challenge_completed,omitempty"`
	Premium                 *bool   `json:"premium,omitempty"`
	UnlockBook              *string `json:"unlock_book,omitempty"`
}

// ReviewNextResponse is the head of the review queue with its exercise.
type ReviewNextResponse struct {
	Pointer  domain.ReviewPointer `json:"pointer"`
	Exercise exercise.Exercise    `json:"exercise"`
}

// ChatRequest is one AI-coach turn.
type ChatRequest struct {
	Message string          `json:"message" validate:"required,max=2000"`
	History []coach.Message `json:"history" validate:"max=50,dive"`
}

// ChatResponse carries the coach's reply and the remaining token balance.
type ChatResponse struct {
	Reply  string `json:"reply"`
	Tokens int    `json:"tokens"`
}

// BookSummary is the catalog listing entry for a book.
type BookSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Premium  bool   `json:"premium"`
	Chapters int    `json:"chapters"`
}
