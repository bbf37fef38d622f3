package learning

import (
	"github.com/hammamikhairi/souschef/internal/domain"
)

// Encouragement phrases appended by Personalize.
const (
	phraseSlowBeginner   = " Take your time - you're learning great!"
	phraseSlow           = " No rush, careful cooking is good cooking."
	phraseFastNavigation = " Great pace! You're cooking confidently."
	phraseFast           = " You're moving fast - double-check this step."
	phraseConfusedDetail = " I'll explain more clearly next time."
	phraseConfused       = " Let me know if anything is unclear."
	phraseRepeats        = " I'll speak more clearly."
	phraseBeginner       = " Don't worry, everyone learns these basics!"
	phraseExperienced    = " You probably know this, but just to confirm."
)

// Personalize appends at most one tone phrase to a raw answer. Rules are
// tried in priority order: pace, confusion, repeats, then skill.
func Personalize(base string, intent domain.IntentType, m *domain.UserModel) string {
	return base + tonePhrase(intent, m)
}

func tonePhrase(intent domain.IntentType, m *domain.UserModel) string {
	skill := m.SkillLevel()

	switch m.Pace {
	case domain.PaceSlow:
		if skill == domain.SkillBeginner {
			return phraseSlowBeginner
		}
		return phraseSlow
	case domain.PaceFast:
		if intent == domain.IntentNavigation {
			return phraseFastNavigation
		}
		return phraseFast
	}

	if m.ConfusionCount > 3 {
		if intent == domain.IntentTechnique || intent == domain.IntentClarification {
			return phraseConfusedDetail
		}
		return phraseConfused
	}

	if m.Interaction.RepeatRequests > 2 {
		return phraseRepeats
	}

	if intent == domain.IntentTechnique {
		switch skill {
		case domain.SkillBeginner:
			return phraseBeginner
		case domain.SkillExperienced:
			return phraseExperienced
		}
	}
	return ""
}
