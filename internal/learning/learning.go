// Package learning tracks how a user cooks within a session and adapts
// reply tone to it. Everything here is a pure mutation or derivation of a
// domain.UserModel: no I/O, no randomness.
package learning

import (
	"github.com/hammamikhairi/souschef/internal/domain"
)

// minPaceSamples is the number of recorded utterances needed before the
// pace is judged.
const minPaceSamples = 3

// Interaction is one processed utterance and the reply it produced.
type Interaction struct {
	Utterance string
	Intent    domain.IntentType
	Response  string
	StepIndex int
	StepText  string
}

// NewInteraction captures the recipe position at the time of the turn.
func NewInteraction(rs *domain.RecipeSession, utterance string, intent domain.IntentType, response string) Interaction {
	in := Interaction{
		Utterance: utterance,
		Intent:    intent,
		Response:  response,
		StepIndex: rs.CurrentStepIndex,
	}
	if text, ok := rs.CurrentStep(); ok {
		in.StepText = text
	}
	return in
}

// Record folds an interaction into the model.
func Record(m *domain.UserModel, in Interaction) {
	if m.QuestionPatterns == nil {
		m.QuestionPatterns = make(map[domain.IntentType]int)
	}
	m.QuestionPatterns[in.Intent]++

	switch in.Intent {
	case domain.IntentClarification, domain.IntentRepeat, domain.IntentTroubleshooting:
		m.ConfusionCount++
	}
	if in.Intent == domain.IntentClarification {
		m.CommonConfusions = append(m.CommonConfusions, domain.Confusion{
			Step:     in.StepIndex,
			Question: in.Utterance,
			StepText: in.StepText,
		})
	}

	switch in.Intent {
	case domain.IntentTechnique:
		m.Skill.Technique++
	case domain.IntentTiming:
		m.Skill.Timing++
	case domain.IntentTroubleshooting:
		m.Skill.Troubleshooting++
	}

	switch in.Intent {
	case domain.IntentNavigation:
		m.Interaction.QuickNavigation++
	case domain.IntentRepeat:
		m.Interaction.RepeatRequests++
	case domain.IntentClarification, domain.IntentTechnique, domain.IntentTiming, domain.IntentTroubleshooting:
		m.Interaction.DetailedQuestions++
	}

	m.SessionQuestions = append(m.SessionQuestions, domain.SessionQuestion{
		Input:    in.Utterance,
		Intent:   in.Intent,
		Step:     in.StepIndex,
		Response: in.Response,
	})

	updatePace(m)
}

// updatePace re-judges the pace once enough utterances are recorded.
// Below the threshold the previous pace stands.
func updatePace(m *domain.UserModel) {
	total := m.TotalClassified()
	if total < minPaceSamples {
		return
	}

	navRatio := float64(m.QuestionPatterns[domain.IntentNavigation]) / float64(total)
	detailed := m.Interaction.DetailedQuestions

	switch {
	case navRatio > 0.6 && detailed < 3:
		m.Pace = domain.PaceFast
	case navRatio < 0.4 || detailed > 5 || m.Interaction.RepeatRequests > 2:
		m.Pace = domain.PaceSlow
	default:
		m.Pace = domain.PaceNormal
	}
}
