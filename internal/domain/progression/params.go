// Package progression implements the pure player-progression calculations:
// XP-to-level mapping, time-based heart recovery, daily token resets, and
// login streak tracking. All functions take an explicit "now" so behavior is
// fully deterministic under test.
package progression

import (
	"errors"
	"time"
)

// Validation errors for progression parameters.
var (
	ErrNoLevelThresholds     = errors.New("level thresholds cannot be empty")
	ErrUnsortedThresholds    = errors.New("level thresholds must be strictly ascending from 0")
	ErrInvalidMaxHearts      = errors.New("max hearts must be positive")
	ErrInvalidRecoveryPeriod = errors.New("heart recovery interval must be positive")
	ErrInvalidDailyTokens    = errors.New("free daily tokens must be positive")
	ErrNegativeXPAward       = errors.New("xp awards cannot be negative")
)

// Params holds the tunable constants of the progression system.
type Params struct {
	// LevelThresholds is the ascending table of cumulative XP required for
	// each level; entry i is the threshold of level i+1. The first entry
	// must be 0 so every profile is at least level 1.
	LevelThresholds []int

	// MaxHearts is the heart ceiling and the starting heart count.
	MaxHearts int

	// HeartRecoveryInterval is the time to regain one heart after a loss.
	HeartRecoveryInterval time.Duration

	// FreeDailyTokens is the token allotment restored each calendar day for
	// non-premium profiles.
	FreeDailyTokens int

	// XP awards.
	XPCorrectAnswer  int
	XPLessonComplete int
	XPPerfectLesson  int
}

// DefaultParams returns the shipped production values.
func DefaultParams() *Params {
	return &Params{
		LevelThresholds:       []int{0, 100, 250, 500, 1000, 2000, 4000, 8000},
		MaxHearts:             5,
		HeartRecoveryInterval: 20 * time.Minute,
		FreeDailyTokens:       3,
		XPCorrectAnswer:       10,
		XPLessonComplete:      50,
		XPPerfectLesson:       25,
	}
}

// Validate checks the parameters for internal consistency.
func (p *Params) Validate() error {
	if len(p.LevelThresholds) == 0 {
		return ErrNoLevelThresholds
	}
	if p.LevelThresholds[0] != 0 {
		return ErrUnsortedThresholds
	}
	for i := 1; i < len(p.LevelThresholds); i++ {
		if p.LevelThresholds[i] <= p.LevelThresholds[i-1] {
			return ErrUnsortedThresholds
		}
	}
	if p.MaxHearts <= 0 {
		return ErrInvalidMaxHearts
	}
	if p.HeartRecoveryInterval <= 0 {
		return ErrInvalidRecoveryPeriod
	}
	if p.FreeDailyTokens <= 0 {
		return ErrInvalidDailyTokens
	}
	if p.XPCorrectAnswer < 0 || p.XPLessonComplete < 0 || p.XPPerfectLesson < 0 {
		return ErrNegativeXPAward
	}
	return nil
}

// MaxLevel returns the highest reachable level.
func (p *Params) MaxLevel() int {
	return len(p.LevelThresholds)
}
