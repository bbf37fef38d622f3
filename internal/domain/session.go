package domain

import (
	"math"
	"time"
)

// RecipeSession is the walkthrough state of one recipe.
//
// CurrentStepIndex stays within [0, len(Steps)] and only equals len(Steps)
// once Completed is set. Completed and Interrupted are terminal and
// mutually exclusive.
type RecipeSession struct {
	RecipeID         string
	RecipeName       string
	Steps            []string
	Ingredients      []string
	CurrentStepIndex int
	Interrupted      bool
	Completed        bool
}

// NewRecipeSession starts a walkthrough of r. A recipe without steps has
// nothing to guide through and starts completed.
func NewRecipeSession(r *Recipe) *RecipeSession {
	rs := &RecipeSession{
		RecipeID:    r.ID,
		RecipeName:  r.Name,
		Steps:       r.StepTexts(),
		Ingredients: append([]string(nil), r.Ingredients...),
	}
	if len(rs.Steps) == 0 {
		rs.Completed = true
	}
	return rs
}

// Ended reports whether the session reached a terminal state.
func (s *RecipeSession) Ended() bool {
	return s.Completed || s.Interrupted
}

// TotalSteps returns the number of steps.
func (s *RecipeSession) TotalSteps() int {
	return len(s.Steps)
}

// CurrentStep returns the text of the current step, or false when the
// index is past the last step.
func (s *RecipeSession) CurrentStep() (string, bool) {
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex >= len(s.Steps) {
		return "", false
	}
	return s.Steps[s.CurrentStepIndex], true
}

// OnLastStep reports whether the current step is the final one.
func (s *RecipeSession) OnLastStep() bool {
	return len(s.Steps) > 0 && s.CurrentStepIndex == len(s.Steps)-1
}

// Upcoming returns up to n step texts after the current one.
func (s *RecipeSession) Upcoming(n int) []string {
	start := s.CurrentStepIndex + 1
	if start >= len(s.Steps) || n <= 0 {
		return nil
	}
	end := min(start+n, len(s.Steps))
	return append([]string(nil), s.Steps[start:end]...)
}

// ProgressPercent is CurrentStepIndex/len(Steps)*100 rounded to one
// decimal, 0 for a recipe without steps.
func (s *RecipeSession) ProgressPercent() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	p := float64(s.CurrentStepIndex) / float64(len(s.Steps)) * 100
	return math.Round(p*10) / 10
}

// Outcome names the terminal state, or "active".
func (s *RecipeSession) Outcome() string {
	switch {
	case s.Completed:
		return "completed"
	case s.Interrupted:
		return "interrupted"
	default:
		return "active"
	}
}

// Session is one guided cooking session: the recipe walkthrough, the
// learning model and the recent conversation, owned together.
type Session struct {
	ID        string
	UserID    string
	Recipe    *RecipeSession
	Model     *UserModel
	History   *TurnHistory
	StartedAt time.Time
	UpdatedAt time.Time
}

// ConversationTurn is one entry of the recent-context window.
type ConversationTurn struct {
	StepIndex int
	Utterance string
	Intent    IntentType
	Timestamp time.Time
}

// TurnHistory is a bounded ring buffer of conversation turns. Older turns
// are overwritten once the buffer is full.
type TurnHistory struct {
	turns []ConversationTurn
	next  int
	full  bool
}

// NewTurnHistory creates a history holding at most size turns.
func NewTurnHistory(size int) *TurnHistory {
	if size < 1 {
		size = 1
	}
	return &TurnHistory{turns: make([]ConversationTurn, size)}
}

// Push records a turn, discarding the oldest when full.
func (h *TurnHistory) Push(t ConversationTurn) {
	h.turns[h.next] = t
	h.next = (h.next + 1) % len(h.turns)
	if h.next == 0 {
		h.full = true
	}
}

// Len returns the number of retained turns.
func (h *TurnHistory) Len() int {
	if h.full {
		return len(h.turns)
	}
	return h.next
}

// Recent returns up to n of the most recent turns, oldest first.
func (h *TurnHistory) Recent(n int) []ConversationTurn {
	size := h.Len()
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}
	out := make([]ConversationTurn, 0, n)
	start := h.next - n
	if start < 0 {
		start += len(h.turns)
	}
	for i := 0; i < n; i++ {
		out = append(out, h.turns[(start+i)%len(h.turns)])
	}
	return out
}

// TurnRecord is one line of the append-only interaction log.
type TurnRecord struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Input     string    `json:"input"`
	Intent    string    `json:"intent"`
	Step      int       `json:"step"`
	Response  string    `json:"response"`
}
