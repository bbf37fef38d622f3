package domain

import (
	"encoding/json"
	"testing"
)

func toast() *Recipe {
	return &Recipe{
		ID:   "toast",
		Name: "Toast",
		Steps: []Step{
			{Number: 1, Text: "Put bread in toaster"},
			{Number: 2, Text: "Wait 3 minutes"},
		},
		Ingredients: []string{"bread", "butter"},
	}
}

func TestNewRecipeSession(t *testing.T) {
	rs := NewRecipeSession(toast())
	if rs.Ended() {
		t.Fatal("new session should not be ended")
	}
	if got, ok := rs.CurrentStep(); !ok || got != "Put bread in toaster" {
		t.Fatalf("current step = %q, %v", got, ok)
	}
	if rs.OnLastStep() {
		t.Fatal("first of two steps reported as last")
	}

	empty := NewRecipeSession(&Recipe{Name: "Nothing"})
	if !empty.Completed || empty.Interrupted {
		t.Fatalf("empty recipe should start completed, got %+v", empty)
	}
	if p := empty.ProgressPercent(); p != 0 {
		t.Fatalf("empty progress = %v, want 0", p)
	}
}

func TestProgressPercent(t *testing.T) {
	rs := &RecipeSession{Steps: []string{"a", "b", "c"}}
	tests := []struct {
		idx  int
		want float64
	}{
		{0, 0},
		{1, 33.3},
		{2, 66.7},
		{3, 100},
	}
	for _, tt := range tests {
		rs.CurrentStepIndex = tt.idx
		if got := rs.ProgressPercent(); got != tt.want {
			t.Errorf("idx=%d: got %v, want %v", tt.idx, got, tt.want)
		}
	}
}

func TestUpcoming(t *testing.T) {
	rs := &RecipeSession{Steps: []string{"a", "b", "c", "d"}}
	if got := rs.Upcoming(2); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("upcoming from 0 = %v", got)
	}
	rs.CurrentStepIndex = 2
	if got := rs.Upcoming(2); len(got) != 1 || got[0] != "d" {
		t.Fatalf("upcoming from 2 = %v", got)
	}
	rs.CurrentStepIndex = 3
	if got := rs.Upcoming(2); got != nil {
		t.Fatalf("upcoming from last = %v, want nil", got)
	}
}

func TestTurnHistoryRing(t *testing.T) {
	h := NewTurnHistory(3)
	if got := h.Recent(3); got != nil {
		t.Fatalf("empty history returned %v", got)
	}
	for i := 0; i < 5; i++ {
		h.Push(ConversationTurn{StepIndex: i})
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	got := h.Recent(3)
	for i, want := range []int{2, 3, 4} {
		if got[i].StepIndex != want {
			t.Fatalf("recent[%d] = %d, want %d", i, got[i].StepIndex, want)
		}
	}
	if two := h.Recent(2); two[0].StepIndex != 3 || two[1].StepIndex != 4 {
		t.Fatalf("recent(2) = %+v", two)
	}
}

func TestParseIntentLabel(t *testing.T) {
	tests := []struct {
		in     string
		want   IntentType
		wantOK bool
	}{
		{"NAVIGATION", IntentNavigation, true},
		{"  clarification\n", IntentClarification, true},
		{"Timing", IntentTiming, true},
		{"stop", IntentStop, true},
		{"QUESTION", IntentQuestion, true},
		{"NAVIGATION.", IntentQuestion, false},
		{"The intent is NAVIGATION", IntentQuestion, false},
		{"EQUIPMENT", IntentQuestion, false},
		{"", IntentQuestion, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseIntentLabel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ParseIntentLabel(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUserModelJSON(t *testing.T) {
	m := NewUserModel()
	m.Pace = PaceSlow
	m.QuestionPatterns[IntentTiming] = 2
	m.QuestionPatterns[IntentNavigation] = 1

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back UserModel
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Pace != PaceSlow {
		t.Fatalf("pace = %s, want slow", back.Pace)
	}
	if back.QuestionPatterns[IntentTiming] != 2 || back.TotalClassified() != 3 {
		t.Fatalf("patterns = %v", back.QuestionPatterns)
	}
}
