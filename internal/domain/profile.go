package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Profile-specific validation errors
var (
	// ErrEmptyProfileUserID is returned when a profile's user ID is empty or nil.
	ErrEmptyProfileUserID = errors.New("profile user ID cannot be empty")

	// ErrNegativeXP is returned when a profile carries negative experience.
	ErrNegativeXP = errors.New("xp cannot be negative")

	// ErrHeartsOutOfRange is returned when hearts fall outside [0, MaxHearts].
	ErrHeartsOutOfRange = errors.New("hearts must be between 0 and max hearts")

	// ErrNegativeTokens is returned when a profile carries negative tokens.
	ErrNegativeTokens = errors.New("tokens cannot be negative")

	// ErrDuplicateReviewEntry is returned when the review queue contains the
	// same exercise pointer more than once.
	ErrDuplicateReviewEntry = errors.New("review queue contains duplicate entries")
)

// DateFormat is the canonical layout for calendar-day fields (last login,
// daily challenge). Storing dates as strings keeps day-boundary comparisons
// trivial and avoids timezone drift during (de)serialization.
const DateFormat = "2006-01-02"

// DateOf formats a timestamp as a calendar day in the timestamp's location.
func DateOf(t time.Time) string {
	return t.Format(DateFormat)
}

// ReviewPointer identifies a single exercise inside the static book content.
// It is the unit stored in the review queue for missed exercises.
type ReviewPointer struct {
	Book     string `json:"book"`
	Chapter  int    `json:"chapter"`
	Lesson   int    `json:"lesson"`
	Exercise int    `json:"exercise"`
}

// LessonKey returns the composite key identifying the pointer's lesson,
// in the same format used by Profile.CompletedLessons.
func (p ReviewPointer) LessonKey() string {
	return LessonKey(p.Book, p.Chapter, p.Lesson)
}

// LessonKey builds the composite completed-lesson key for a lesson.
func LessonKey(book string, chapter, lesson int) string {
	return fmt.Sprintf("%s:%d:%d", book, chapter, lesson)
}

// Profile is the per-user progression aggregate: experience, hearts, tokens,
// streaks, achievements, completed lessons, and the review queue. The level is
// always derived from XP by the progression calculator; it is stored here only
// so reads don't need to recompute it, never as an independent source of truth.
//
// Profiles are mutated exclusively through the player coordinator, which
// serializes all changes and keeps the derived fields consistent.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	Hearts    int       `json:"hearts"`
	MaxHearts int       `json:"max_hearts"`
	Tokens    int       `json:"tokens"`

	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	LastLoginDate string `json:"last_login_date,omitempty"` // calendar day, DateFormat

	// LastHeartLost anchors heart recovery. It is stamped on the loss that
	// starts a depletion (or the one that empties the hearts) and cleared only
	// once hearts are back at max. Partial recovery keeps the same anchor.
	LastHeartLost *time.Time `json:"last_heart_lost,omitempty"`

	IsPremium    bool     `json:"is_premium"`
	PremiumBooks []string `json:"premium_books"`

	TotalCorrect   int `json:"total_correct"`
	TotalWrong     int `json:"total_wrong"`
	PerfectLessons int `json:"perfect_lessons"`

	Achievements     []string        `json:"achievements"`
	CompletedLessons map[string]bool `json:"completed_lessons"`
	ReviewQueue      []ReviewPointer `json:"review_queue"`

	DailyChallengeCompleted string `json:"daily_challenge_completed,omitempty"` // calendar day, DateFormat
	OnboardingComplete      bool   `json:"onboarding_complete"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile creates a fresh profile with default values for a first session:
// full hearts, the free daily token allotment, and no progress.
func NewProfile(userID uuid.UUID, maxHearts, dailyTokens int) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:           userID,
		XP:               0,
		Level:            1,
		Hearts:           maxHearts,
		MaxHearts:        maxHearts,
		Tokens:           dailyTokens,
		PremiumBooks:     []string{},
		Achievements:     []string{},
		CompletedLessons: map[string]bool{},
		ReviewQueue:      []ReviewPointer{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks the profile's invariants.
// Returns an error if any field fails validation.
func (p *Profile) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProfileUserID
	}
	if p.XP < 0 {
		return ErrNegativeXP
	}
	if p.Hearts < 0 || p.Hearts > p.MaxHearts {
		return ErrHeartsOutOfRange
	}
	if p.Tokens < 0 {
		return ErrNegativeTokens
	}

	seen := make(map[ReviewPointer]bool, len(p.ReviewQueue))
	for _, ptr := range p.ReviewQueue {
		if seen[ptr] {
			return ErrDuplicateReviewEntry
		}
		seen[ptr] = true
	}

	return nil
}

// EnqueueReview appends the pointer to the tail of the review queue unless an
// entry matching all four fields already exists. Returns true if the pointer
// was inserted, false if it was already queued (idempotent enqueue).
func (p *Profile) EnqueueReview(ptr ReviewPointer) bool {
	for _, existing := range p.ReviewQueue {
		if existing == ptr {
			return false
		}
	}
	p.ReviewQueue = append(p.ReviewQueue, ptr)
	return true
}

// ResolveReview removes the first (and by invariant, only) entry matching the
// pointer from the review queue. Returns true if an entry was removed.
func (p *Profile) ResolveReview(ptr ReviewPointer) bool {
	for i, existing := range p.ReviewQueue {
		if existing == ptr {
			p.ReviewQueue = append(p.ReviewQueue[:i], p.ReviewQueue[i+1:]...)
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement ID has already been earned.
func (p *Profile) HasAchievement(id string) bool {
	for _, earned := range p.Achievements {
		if earned == id {
			return true
		}
	}
	return false
}

// TotalAnswers returns the cumulative number of graded answers.
func (p *Profile) TotalAnswers() int {
	return p.TotalCorrect + p.TotalWrong
}

// Clone returns a deep copy of the profile. Snapshots handed to the debounced
// saver and to API responses must not alias the coordinator's live maps and
// slices.
func (p *Profile) Clone() *Profile {
	cp := *p

	if p.LastHeartLost != nil {
		t := *p.LastHeartLost
		cp.LastHeartLost = &t
	}

	cp.PremiumBooks = append([]string(nil), p.PremiumBooks...)
	cp.Achievements = append([]string(nil), p.Achievements...)
	cp.ReviewQueue = append([]ReviewPointer(nil), p.ReviewQueue...)

	cp.CompletedLessons = make(map[string]bool, len(p.CompletedLessons))
	for k, v := range p.CompletedLessons {
		cp.CompletedLessons[k] = v
	}

	return &cp
}

// Normalize repairs nil collections after deserialization so callers can rely
// on non-nil maps and slices, and clamps counters back inside their bounds.
// Out-of-range values from an old cache entry are clamped rather than rejected.
func (p *Profile) Normalize() {
	if p.PremiumBooks == nil {
		p.PremiumBooks = []string{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.CompletedLessons == nil {
		p.CompletedLessons = map[string]bool{}
	}
	if p.ReviewQueue == nil {
		p.ReviewQueue = []ReviewPointer{}
	}

	if p.XP < 0 {
		p.XP = 0
	}
	if p.Tokens < 0 {
		p.Tokens = 0
	}
	if p.Hearts < 0 {
		p.Hearts = 0
	}
	if p.MaxHearts > 0 && p.Hearts > p.MaxHearts {
		p.Hearts = p.MaxHearts
	}
}
