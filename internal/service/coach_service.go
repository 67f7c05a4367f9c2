// Package service contains application services that orchestrate domain
// logic, stores, and external collaborators on behalf of the API layer.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mindset-api/internal/coach"
	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/service/player"
)

// CoachService provides AI-coach chat turns gated by the player's token
// balance.
type CoachService interface {
	// Chat spends one token from the session and relays the message to the
	// coach. Returns coach.ErrNoTokens without relaying when the balance is
	// empty. The token is consumed up front so a single token can never pay
	// for two concurrent turns; a failed relay does not refund it.
	Chat(ctx context.Context, sess *player.Coordinator, message string, history []coach.Message) (string, error)
}

type coachServiceImpl struct {
	relay  coach.Relay
	logger *slog.Logger
}

// NewCoachService creates a new CoachService.
// It returns an error if the relay is nil.
func NewCoachService(relay coach.Relay, logger *slog.Logger) (CoachService, error) {
	if relay == nil {
		return nil, fmt.Errorf("%w: relay cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &coachServiceImpl{
		relay:  relay,
		logger: logger.With(slog.String("component", "coach_service")),
	}, nil
}

func (s *coachServiceImpl) Chat(ctx context.Context, sess *player.Coordinator, message string, history []coach.Message) (string, error) {
	if message == "" {
		return "", coach.ErrEmptyMessage
	}

	spent, err := sess.SpendToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to spend coach token: %w", err)
	}
	if !spent {
		return "", coach.ErrNoTokens
	}

	reply, err := s.relay.Chat(ctx, message, history)
	if err != nil {
		s.logger.WarnContext(ctx, "coach relay failed after token spend",
			slog.String("error", err.Error()))
		return "", err
	}
	return reply, nil
}
