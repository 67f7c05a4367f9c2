package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/store"
)

// PostgresProfileStore implements the store.ProfileStore interface using a
// PostgreSQL database as the storage backend. Collection-valued fields
// (achievements, completed lessons, review queue, premium books) are stored
// as JSONB columns; scalar counters get plain columns so they stay queryable.
type PostgresProfileStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure PostgresProfileStore implements store.ProfileStore interface
var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// NewPostgresProfileStore creates a new PostgreSQL implementation of the
// ProfileStore interface.
func NewPostgresProfileStore(db *sql.DB, logger *slog.Logger) *PostgresProfileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{
		db:     db,
		logger: logger.With("component", "postgres_profile_store"),
	}
}

const profileColumns = `
	user_id, xp, level, hearts, max_hearts, tokens,
	current_streak, longest_streak, last_login_date, last_heart_lost,
	is_premium, premium_books, total_correct, total_wrong, perfect_lessons,
	achievements, completed_lessons, review_queue,
	daily_challenge_completed, onboarding_complete, created_at, updated_at`

// FetchByUser implements store.ProfileStore.FetchByUser.
func (s *PostgresProfileStore) FetchByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT` + profileColumns + ` FROM player_profiles WHERE user_id = $1`

	row := s.db.QueryRowContext(ctx, query, userID)

	var (
		p                domain.Profile
		lastLogin        sql.NullString
		lastHeartLost    sql.NullTime
		dailyChallenge   sql.NullString
		premiumBooks     []byte
		achievements     []byte
		completedLessons []byte
		reviewQueue      []byte
	)

	err := row.Scan(
		&p.UserID, &p.XP, &p.Level, &p.Hearts, &p.MaxHearts, &p.Tokens,
		&p.CurrentStreak, &p.LongestStreak, &lastLogin, &lastHeartLost,
		&p.IsPremium, &premiumBooks, &p.TotalCorrect, &p.TotalWrong, &p.PerfectLessons,
		&achievements, &completedLessons, &reviewQueue,
		&dailyChallenge, &p.OnboardingComplete, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.LastLoginDate = lastLogin.String
	p.DailyChallengeCompleted = dailyChallenge.String
	if lastHeartLost.Valid {
		t := lastHeartLost.Time
		p.LastHeartLost = &t
	}

	if err := unmarshalColumn(premiumBooks, &p.PremiumBooks); err != nil {
		return nil, fmt.Errorf("failed to decode premium_books: %w", err)
	}
	if err := unmarshalColumn(achievements, &p.Achievements); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	if err := unmarshalColumn(completedLessons, &p.CompletedLessons); err != nil {
		return nil, fmt.Errorf("failed to decode completed_lessons: %w", err)
	}
	if err := unmarshalColumn(reviewQueue, &p.ReviewQueue); err != nil {
		return nil, fmt.Errorf("failed to decode review_queue: %w", err)
	}

	p.Normalize()
	return &p, nil
}

// Insert implements store.ProfileStore.Insert.
func (s *PostgresProfileStore) Insert(ctx context.Context, profile *domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cols, err := marshalProfileColumns(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO player_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err = s.db.ExecContext(ctx, query, cols...)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProfileExists
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// Update implements store.ProfileStore.Update. The whole field set is written
// in a single statement: the newest payload wins wholesale, per the engine's
// last-write-wins persistence policy.
func (s *PostgresProfileStore) Update(ctx context.Context, profile *domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cols, err := marshalProfileColumns(profile)
	if err != nil {
		return err
	}

	const query = `
		UPDATE player_profiles
		SET xp = $2, level = $3, hearts = $4, max_hearts = $5, tokens = $6,
		    current_streak = $7, longest_streak = $8, last_login_date = $9,
		    last_heart_lost = $10, is_premium = $11, premium_books = $12,
		    total_correct = $13, total_wrong = $14, perfect_lessons = $15,
		    achievements = $16, completed_lessons = $17, review_queue = $18,
		    daily_challenge_completed = $19, onboarding_complete = $20,
		    created_at = $21, updated_at = $22
		WHERE user_id = $1`

	result, err := s.db.ExecContext(ctx, query, cols...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return store.ErrProfileNotFound
	}

	return nil
}

// marshalProfileColumns produces the positional arguments shared by Insert
// and Update, in profileColumns order.
func marshalProfileColumns(p *domain.Profile) ([]interface{}, error) {
	premiumBooks, err := json.Marshal(p.PremiumBooks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode premium_books: %w", err)
	}
	achievements, err := json.Marshal(p.Achievements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode achievements: %w", err)
	}
	completedLessons, err := json.Marshal(p.CompletedLessons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completed_lessons: %w", err)
	}
	reviewQueue, err := json.Marshal(p.ReviewQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to encode review_queue: %w", err)
	}

	var lastHeartLost interface{}
	if p.LastHeartLost != nil {
		lastHeartLost = *p.LastHeartLost
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return []interface{}{
		p.UserID, p.XP, p.Level, p.Hearts, p.MaxHearts, p.Tokens,
		p.CurrentStreak, p.LongestStreak, nullableString(p.LastLoginDate), lastHeartLost,
		p.IsPremium, premiumBooks, p.TotalCorrect, p.TotalWrong, p.PerfectLessons,
		achievements, completedLessons, reviewQueue,
		nullableString(p.DailyChallengeCompleted), p.OnboardingComplete, p.CreatedAt, updatedAt,
	}, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func unmarshalColumn(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
