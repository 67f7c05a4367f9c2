// Package achievement holds the declarative achievement rule set: a fixed,
// ordered list of definitions whose predicates are evaluated against profile
// snapshots to detect newly earned achievements.
package achievement

import (
	"github.com/phrazzld/mindset-api/internal/domain"
)

// minAccuracySample is the minimum number of graded answers before
// accuracy-based achievements activate, so tiny samples can't unlock them.
const minAccuracySample = 10

// Definition describes one achievement: a stable ID, display metadata, and a
// pure predicate over a profile snapshot.
type Definition struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Check reports whether the profile satisfies the achievement.
	// It must be pure: no side effects, no time dependence.
	Check func(p *domain.Profile) bool `json:"-"`
}

// Definitions is the fixed rule set, in award-presentation order.
// IDs are persisted in profiles and must never change.
var Definitions = []Definition{
	{
		ID: "first_lesson", Icon: "🎯", Title: "First Step",
		Description: "Complete your first lesson",
		Check:       func(p *domain.Profile) bool { return len(p.CompletedLessons) >= 1 },
	},
	{
		ID: "five_lessons", Icon: "⭐", Title: "Steady Learner",
		Description: "Complete 5 lessons",
		Check:       func(p *domain.Profile) bool { return len(p.CompletedLessons) >= 5 },
	},
	{
		ID: "all_lessons", Icon: "🏆", Title: "Master",
		Description: "Complete all lessons",
		Check:       func(p *domain.Profile) bool { return len(p.CompletedLessons) >= 15 },
	},
	{
		ID: "streak_3", Icon: "🔥", Title: "On a Roll",
		Description: "3 days in a row",
		Check:       func(p *domain.Profile) bool { return p.CurrentStreak >= 3 },
	},
	{
		ID: "streak_7", Icon: "💥", Title: "Full Week",
		Description: "7 days in a row",
		Check:       func(p *domain.Profile) bool { return p.CurrentStreak >= 7 },
	},
	{
		ID: "streak_30", Icon: "👑", Title: "Legend",
		Description: "30 days in a row",
		Check:       func(p *domain.Profile) bool { return p.CurrentStreak >= 30 },
	},
	{
		ID: "xp_500", Icon: "💎", Title: "Point Collector",
		Description: "Earn 500 XP",
		Check:       func(p *domain.Profile) bool { return p.XP >= 500 },
	},
	{
		ID: "xp_1000", Icon: "🌟", Title: "Rising Star",
		Description: "Earn 1000 XP",
		Check:       func(p *domain.Profile) bool { return p.XP >= 1000 },
	},
	{
		ID: "accuracy_80", Icon: "🎯", Title: "Sharp Eye",
		Description: "Accuracy above 80%",
		Check: func(p *domain.Profile) bool {
			total := p.TotalAnswers()
			return total > minAccuracySample &&
				float64(p.TotalCorrect)/float64(total) >= 0.8
		},
	},
	{
		ID: "perfect_lesson", Icon: "💯", Title: "Flawless",
		Description: "Finish a lesson without mistakes",
		Check:       func(p *domain.Profile) bool { return p.PerfectLessons > 0 },
	},
	{
		ID: "correct_50", Icon: "✅", Title: "Solid Knowledge",
		Description: "50 correct answers",
		Check:       func(p *domain.Profile) bool { return p.TotalCorrect >= 50 },
	},
	{
		ID: "correct_100", Icon: "🧠", Title: "Sharp Mind",
		Description: "100 correct answers",
		Check:       func(p *domain.Profile) bool { return p.TotalCorrect >= 100 },
	},
}

// DetectNewly returns the achievements whose predicate holds for the profile
// and whose ID has not yet been earned, in definition order. The evaluation is
// idempotent; callers choosing to award only the first result per cycle still
// see the rest on the next evaluation.
func DetectNewly(p *domain.Profile) []Definition {
	var newly []Definition
	for _, def := range Definitions {
		if p.HasAchievement(def.ID) {
			continue
		}
		if def.Check(p) {
			newly = append(newly, def)
		}
	}
	return newly
}

// ByID returns the definition with the given ID, if it exists.
func ByID(id string) (Definition, bool) {
	for _, def := range Definitions {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
