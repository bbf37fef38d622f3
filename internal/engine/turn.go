package engine

import (
	"context"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/gpt"
	"github.com/hammamikhairi/souschef/internal/learning"
	"github.com/hammamikhairi/souschef/internal/metrics"
)

// TurnResult is the outcome of one processed utterance.
type TurnResult struct {
	Intent domain.Intent
	Reply  string
	// Urgent marks replies that carry a safety caution.
	Urgent bool
	// Advanced is set when the turn moved to a new step.
	Advanced bool
	// Answered is set when the reply came from the completion service.
	Answered bool
	Progress Progress
}

// Progress is a read-only view of where a session stands.
type Progress struct {
	SessionID   string  `json:"session_id"`
	RecipeName  string  `json:"recipe_name"`
	Step        int     `json:"step"` // 1-based, capped at TotalSteps
	TotalSteps  int     `json:"total_steps"`
	Percent     float64 `json:"percent"`
	Completed   bool    `json:"completed"`
	Interrupted bool    `json:"interrupted"`
}

// Ended reports whether the session reached a terminal state.
func (p Progress) Ended() bool { return p.Completed || p.Interrupted }

// ProgressOf snapshots a session's position.
func ProgressOf(s *domain.Session) Progress {
	rs := s.Recipe
	return Progress{
		SessionID:   s.ID,
		RecipeName:  rs.RecipeName,
		Step:        min(rs.CurrentStepIndex+1, rs.TotalSteps()),
		TotalSteps:  rs.TotalSteps(),
		Percent:     rs.ProgressPercent(),
		Completed:   rs.Completed,
		Interrupted: rs.Interrupted,
	}
}

// Turn processes one utterance: classify, act, update the learning model
// and return the reply. Empty input is rejected before classification
// with domain.ErrEmptyUtterance; a session in a terminal state returns
// domain.ErrSessionEnded. A failing completion service never fails the
// turn.
func (e *Engine) Turn(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, domain.ErrEmptyUtterance
	}

	session, unlock, err := e.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rs := session.Recipe
	if rs.Ended() {
		return nil, domain.ErrSessionEnded
	}

	intent, err := e.classifier.Classify(ctx, utterance, rs)
	if err != nil {
		// The combined classifier never fails; a bare one might.
		e.log.Warn("classify failed, treating as question: %v", err)
		intent = domain.FallbackIntent()
	}
	e.log.Debug("turn %s: %q -> %s (%.1f, %s)", sessionID, utterance, intent.Type, intent.Confidence, intent.Source)
	metrics.Turns.WithLabelValues(intent.Type.String()).Inc()

	// Learning and history refer to the step the user was on when they spoke.
	before := learning.NewInteraction(rs, utterance, intent.Type, "")

	res := &TurnResult{Intent: intent}
	switch intent.Type {
	case domain.IntentNavigation:
		e.navigate(rs, res)
	case domain.IntentRepeat:
		step, _ := rs.CurrentStep()
		res.Reply = LineStep(rs.CurrentStepIndex, step)
	case domain.IntentStop:
		rs.Interrupted = true
		res.Reply = LineStop()
	case domain.IntentIngredients:
		res.Reply = LineIngredients(rs.RecipeName, rs.Ingredients)
	default:
		e.answer(ctx, session, utterance, intent.Type, res)
	}

	before.Response = res.Reply
	learning.Record(session.Model, before)
	session.History.Push(domain.ConversationTurn{
		StepIndex: before.StepIndex,
		Utterance: utterance,
		Intent:    intent.Type,
		Timestamp: e.now(),
	})
	session.UpdatedAt = e.now()

	if rs.Ended() {
		e.ended(session)
	}
	if err := e.store.Save(ctx, session); err != nil {
		e.log.Error("saving session %s: %v", sessionID, err)
	}
	e.logTurn(ctx, session, before)

	res.Progress = ProgressOf(session)
	return res, nil
}

// navigate moves forward one step. On the last step the session
// completes and the index moves past the end.
func (e *Engine) navigate(rs *domain.RecipeSession, res *TurnResult) {
	if rs.OnLastStep() {
		rs.CurrentStepIndex = rs.TotalSteps()
		rs.Completed = true
		res.Reply = LineCompleted()
		return
	}

	rs.CurrentStepIndex++
	res.Advanced = true
	step, _ := rs.CurrentStep()
	res.Reply = LineStep(rs.CurrentStepIndex, step)
	if needsCaution(step) {
		res.Reply = LineCaution() + " " + res.Reply
		res.Urgent = true
	}
}

// answer asks the completion service about the current step. A failure is
// a per-turn problem: the user hears a rephrase request.
func (e *Engine) answer(ctx context.Context, session *domain.Session, utterance string, intent domain.IntentType, res *TurnResult) {
	if e.answerer == nil {
		res.Reply = LineRephrase()
		return
	}

	snap := gpt.BuildContext(utterance, intent, session.Recipe, session.Model, session.History)

	actx, cancel := context.WithTimeout(ctx, e.answerTimeout)
	defer cancel()

	raw, err := e.answerer.Answer(actx, snap)
	if err != nil {
		e.log.Warn("answer failed for %s: %v", intent, err)
		metrics.CompletionFailures.Inc()
		res.Reply = LineRephrase()
		return
	}

	res.Reply = learning.Personalize(strings.TrimSpace(raw), intent, session.Model) + LineContinue()
	res.Answered = true
}

func (e *Engine) logTurn(ctx context.Context, session *domain.Session, in learning.Interaction) {
	if e.turnLog == nil {
		return
	}
	rec := domain.TurnRecord{
		Timestamp: e.now(),
		SessionID: session.ID,
		Input:     in.Utterance,
		Intent:    in.Intent.String(),
		Step:      in.StepIndex + 1,
		Response:  in.Response,
	}
	if err := e.turnLog.Append(ctx, rec); err != nil {
		e.log.Warn("turn log: %v", err)
	}
}
