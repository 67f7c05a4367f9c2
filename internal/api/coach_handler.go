package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/mindset-api/internal/api/shared"
	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/service"
	"github.com/phrazzld/mindset-api/internal/service/player"
)

// CoachHandler handles the AI-coach chat endpoint.
type CoachHandler struct {
	sessions     *player.Manager
	coachService service.CoachService
	validator    *validator.Validate
}

// NewCoachHandler creates a new CoachHandler with the given dependencies.
func NewCoachHandler(sessions *player.Manager, coachService service.CoachService) *CoachHandler {
	return &CoachHandler{
		sessions:     sessions,
		coachService: coachService,
		validator:    validator.New(),
	}
}

// Chat handles POST /coach/chat. A successful turn consumes one token.
func (h *CoachHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}
	coord, err := h.sessions.Acquire(r.Context(), player.Identity{UserID: userID})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load profile")
		return
	}

	reply, err := h.coachService.Chat(r.Context(), coord, req.Message, req.History)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	p, err := coord.Profile()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ChatResponse{
		Reply:  reply,
		Tokens: p.Tokens,
	})
}
