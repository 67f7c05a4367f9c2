package progression

import (
	"fmt"
	"time"

	"github.com/phrazzld/mindset-api/internal/domain"
)

// Calculator performs the derived-state computations of the progression
// system against a fixed set of parameters. It holds no mutable state of its
// own and is safe for concurrent use.
type Calculator struct {
	params *Params
}

// NewCalculator creates a Calculator after validating the parameters.
func NewCalculator(params *Params) (*Calculator, error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid progression params: %w", err)
	}
	return &Calculator{params: params}, nil
}

// Params returns the calculator's parameters.
func (c *Calculator) Params() *Params {
	return c.params
}

// LevelForXP returns the 1-based level for a cumulative XP total: the highest
// level whose threshold is <= xp. Negative XP is treated as 0, so the result
// is always at least 1 and monotonically non-decreasing in xp.
func (c *Calculator) LevelForXP(xp int) int {
	for i := len(c.params.LevelThresholds) - 1; i >= 0; i-- {
		if xp >= c.params.LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// ProgressPercent returns the linear progress through the current level as a
// percentage in [0, 100]. At the maximum level it returns 100 once xp has
// reached the final threshold.
func (c *Calculator) ProgressPercent(xp int) float64 {
	if xp < 0 {
		xp = 0
	}

	level := c.LevelForXP(xp)
	thresholds := c.params.LevelThresholds

	if level >= len(thresholds) {
		return 100
	}

	current := thresholds[level-1]
	next := thresholds[level]

	percent := float64(xp-current) / float64(next-current) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// RecoverHearts applies time-based heart recovery to the profile. One heart
// is regained per full recovery interval elapsed since the loss anchor,
// capped at max hearts. The anchor is cleared only on full recovery; partial
// recovery deliberately keeps the original anchor rather than advancing it
// per recovered heart, matching the shipped behavior (see DESIGN.md).
// Returns true if any hearts were regained.
func (c *Calculator) RecoverHearts(p *domain.Profile, now time.Time) bool {
	if p.Hearts >= p.MaxHearts || p.LastHeartLost == nil {
		return false
	}

	elapsed := now.Sub(*p.LastHeartLost)
	recovered := int(elapsed / c.params.HeartRecoveryInterval)
	if recovered <= 0 {
		return false
	}

	missing := p.MaxHearts - p.Hearts
	if recovered >= missing {
		p.Hearts = p.MaxHearts
		p.LastHeartLost = nil
	} else {
		p.Hearts += recovered
	}
	return true
}

// ResetDailyTokens raises the profile's tokens back up to the free daily
// allotment on the first evaluation of a new calendar day. Tokens are never
// lowered, and premium profiles are exempt (their tokens are purchased, not
// rationed). Must run after UpdateStreak has stamped the login date for the
// comparison to see the previous day.
//
// Returns true if tokens were raised.
func (c *Calculator) ResetDailyTokens(p *domain.Profile, lastLoginBefore string, now time.Time) bool {
	if p.IsPremium {
		return false
	}
	if lastLoginBefore == domain.DateOf(now) {
		return false
	}
	if p.Tokens >= c.params.FreeDailyTokens {
		return false
	}
	p.Tokens = c.params.FreeDailyTokens
	return true
}

// UpdateStreak evaluates the login streak for the current calendar day:
// a login the day after the previous one extends the streak, any longer gap
// resets it to 1, and repeat logins on the same day are no-ops. The longest
// streak is maintained as a running maximum and the login date is always
// stamped to today once evaluated.
//
// Returns true if the streak was extended (not merely reset or unchanged).
func (c *Calculator) UpdateStreak(p *domain.Profile, now time.Time) bool {
	today := domain.DateOf(now)
	if p.LastLoginDate == today {
		return false
	}

	yesterday := domain.DateOf(now.AddDate(0, 0, -1))

	extended := false
	if p.LastLoginDate == yesterday {
		p.CurrentStreak++
		extended = true
	} else {
		p.CurrentStreak = 1
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastLoginDate = today

	return extended
}
