package api

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/mindset-api/internal/api/shared"
	"github.com/phrazzld/mindset-api/internal/content"
	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/exercise"
	"github.com/phrazzld/mindset-api/internal/service/player"
)

// PlayerHandler handles the player progression endpoints: profile reads,
// graded answers, lesson completions, token spends, settings, and the
// review queue.
type PlayerHandler struct {
	sessions  *player.Manager
	library   *content.Library
	validator *validator.Validate
}

// NewPlayerHandler creates a new PlayerHandler with the given dependencies.
func NewPlayerHandler(sessions *player.Manager, library *content.Library) *PlayerHandler {
	return &PlayerHandler{
		sessions:  sessions,
		library:   library,
		validator: validator.New(),
	}
}

// session acquires the authenticated user's coordinator, writing the error
// response itself on failure.
func (h *PlayerHandler) session(w http.ResponseWriter, r *http.Request) (*player.Coordinator, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return nil, false
	}

	coord, err := h.sessions.Acquire(r.Context(), player.Identity{UserID: userID})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load profile")
		return nil, false
	}
	return coord, true
}

// respondProfile writes the current profile snapshot, handling the error
// response itself on failure.
func (h *PlayerHandler) respondProfile(w http.ResponseWriter, r *http.Request, coord *player.Coordinator) {
	resp, err := buildProfileResponse(coord)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func buildProfileResponse(coord *player.Coordinator) (ProfileResponse, error) {
	p, err := coord.Profile()
	if err != nil {
		return ProfileResponse{}, err
	}
	pct, err := coord.ProgressPercent()
	if err != nil {
		return ProfileResponse{}, err
	}

	completed := make([]string, 0, len(p.CompletedLessons))
	for key := range p.CompletedLessons {
		completed = append(completed, key)
	}
	sort.Strings(completed)

	return ProfileResponse{
		XP:                 p.XP,
		Level:              p.Level,
		ProgressPercent:    pct,
		Hearts:             p.Hearts,
		MaxHearts:          p.MaxHearts,
		Tokens:             p.Tokens,
		CurrentStreak:      p.CurrentStreak,
		LongestStreak:      p.LongestStreak,
		IsPremium:          p.IsPremium,
		PremiumBooks:       p.PremiumBooks,
		TotalCorrect:       p.TotalCorrect,
		TotalWrong:         p.TotalWrong,
		PerfectLessons:     p.PerfectLessons,
		Achievements:       p.Achievements,
		CompletedLessons:   completed,
		ReviewQueueLength:  len(p.ReviewQueue),
		OnboardingComplete: p.OnboardingComplete,
		LastHeartLost:      p.LastHeartLost,
		ReviewQueue:        p.ReviewQueue,
	}, nil
}

// GetProfile handles GET /profile.
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondProfile(w, r, coord)
}

// SubmitAnswer handles POST /profile/answer: it grades the response against
// the referenced exercise and records the consequence (experience for a
// correct answer, a heart and a review entry for a wrong one).
func (h *PlayerHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	ptr := domain.ReviewPointer{
		Book:     req.Book,
		Chapter:  req.Chapter,
		Lesson:   req.Lesson,
		Exercise: req.Exercise,
	}
	ex, found := h.library.Exercise(ptr)
	if !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Exercise not found")
		return
	}

	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	correct := exercise.Evaluate(*ex, req.Response)
	if correct {
		if err := coord.RecordCorrectAnswer(r.Context()); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		if req.Reviewing {
			if err := coord.ResolveReview(r.Context(), ptr); err != nil {
				HandleAPIError(w, r, err, "")
				return
			}
		}
	} else {
		if err := coord.RecordWrongAnswer(r.Context(), ptr); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	resp, err := buildProfileResponse(coord)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AnswerResponse{
		Correct:     correct,
		Explanation: ex.Explanation,
		Profile:     resp,
	})
}

// CompleteLesson handles POST /profile/lesson-complete.
func (h *PlayerHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req LessonCompleteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if _, found := h.library.Lesson(req.Book, req.Chapter, req.Lesson); !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Lesson not found")
		return
	}

	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	newly, err := coord.CompleteLesson(r.Context(), req.Book, req.Chapter, req.Lesson, req.Perfect)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp, err := buildProfileResponse(coord)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LessonCompleteResponse{
		NewlyCompleted: newly,
		Profile:        resp,
	})
}

// SpendToken handles POST /profile/token/spend.
func (h *PlayerHandler) SpendToken(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	spent, err := coord.SpendToken(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	p, err := coord.Profile()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TokenSpendResponse{
		Spent:  spent,
		Tokens: p.Tokens,
	})
}

// UpdateSettings handles PATCH /profile/settings.
func (h *PlayerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.UnlockBook != nil {
		if _, found := h.library.Book(*req.UnlockBook); !found {
			shared.RespondWithError(w, r, http.StatusNotFound, "Book not found")
			return
		}
	}

	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := coord.ApplySettings(r.Context(), player.Settings{
		OnboardingComplete:      req.OnboardingComplete,
		DailyChallengeCompleted: req.DailyChallengeCompleted,
		Premium:                 req.Premium,
	}); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.UnlockBook != nil {
		if err := coord.UnlockBook(r.Context(), *req.UnlockBook); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	h.respondProfile(w, r, coord)
}

// ResetProgress handles POST /profile/reset.
func (h *PlayerHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := coord.ResetProgress(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondProfile(w, r, coord)
}

// NextReview handles GET /review/next: it returns the head of the review
// queue with its exercise, or 204 when the queue is empty. Entries whose
// exercise no longer exists in the content are dropped and skipped.
func (h *PlayerHandler) NextReview(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.session(w, r)
	if !ok {
		return
	}

	p, err := coord.Profile()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	for _, ptr := range p.ReviewQueue {
		ex, found := h.library.Exercise(ptr)
		if !found {
			// Content moved since the miss was recorded; drop the entry.
			if err := coord.ResolveReview(r.Context(), ptr); err != nil {
				HandleAPIError(w, r, err, "")
				return
			}
			continue
		}
		shared.RespondWithJSON(w, r, http.StatusOK, ReviewNextResponse{
			Pointer:  ptr,
			Exercise: *ex,
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
