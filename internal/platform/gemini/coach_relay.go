package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/mindset-api/internal/coach"
	"github.com/phrazzld/mindset-api/internal/config"
)

// CoachRelay implements the coach.Relay interface using Google's Gemini API.
type CoachRelay struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

var _ coach.Relay = (*CoachRelay)(nil)

// NewCoachRelay creates a relay backed by the Gemini API.
// It returns an error if the configuration is incomplete or the client
// cannot be initialized.
func NewCoachRelay(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*CoachRelay, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", coach.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", coach.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", coach.ErrInvalidConfig, err)
	}

	return &CoachRelay{
		logger: logger.With(slog.String("component", "gemini_coach_relay")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Chat implements coach.Relay. It sends the conversation to Gemini and
// returns the reply text, retrying transient failures with exponential
// backoff. Safety blocks and malformed responses are permanent and returned
// immediately.
func (r *CoachRelay) Chat(ctx context.Context, message string, history []coach.Message) (string, error) {
	if message == "" {
		return "", coach.ErrEmptyMessage
	}

	contents := r.buildContents(message, history)
	genConfig := &genai.GenerateContentConfig{}
	if r.config.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(r.config.SystemPrompt, genai.RoleUser)
	}
	if r.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(r.config.MaxTokens)
	}

	maxRetries := r.config.MaxRetries
	if maxRetries < 0 {
		r.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	baseDelaySeconds := r.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		r.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"history_turns", len(history))

		reply, err := r.call(ctx, contents, genConfig)
		if err == nil {
			return reply, nil
		}

		// Permanent errors are not retried.
		if errors.Is(err, coach.ErrContentBlocked) || errors.Is(err, coach.ErrInvalidResponse) {
			r.logger.WarnContext(ctx, "permanent error from Gemini, not retrying",
				"error", err.Error())
			return "", err
		}

		if attempt >= maxRetries {
			r.logger.WarnContext(ctx, "maximum retry attempts reached",
				"max_retries", maxRetries)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				coach.ErrTransientFailure, maxRetries, err)
		}

		// Exponential backoff with jitter.
		delay := time.Duration(float64(baseDelaySeconds)*math.Pow(2, float64(attempt))) * time.Second
		delay += time.Duration(rng.Int63n(int64(time.Second)))
		r.logger.DebugContext(ctx, "retrying Gemini API call after backoff",
			"attempt", attempt+1,
			"delay", delay.String())

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", coach.ErrChatFailed, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (r *CoachRelay) call(ctx context.Context, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (string, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, genConfig)
	if err != nil {
		// API-level errors are assumed transient; the retry loop decides.
		return "", fmt.Errorf("%w: %v", coach.ErrChatFailed, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", coach.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply blocked by safety filters", coach.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", coach.ErrInvalidResponse)
	}

	reply := resp.Text()
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply text", coach.ErrInvalidResponse)
	}
	return reply, nil
}

// buildContents converts the prior turns plus the new user message into the
// genai content list, oldest first.
func (r *CoachRelay) buildContents(message string, history []coach.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))
	return contents
}
