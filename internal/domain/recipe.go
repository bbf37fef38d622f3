// Package domain defines the core types and interfaces for the cooking assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// Recipe is a stored or loaded recipe in canonical shape. Every accepted
// input format is normalized into this type at the storage boundary.
type Recipe struct {
	ID                  string
	Name                string
	MealType            string
	CookingTime         int // minutes, 0 if unknown
	SkillLevel          string
	DietaryRestrictions string
	Ingredients         []string
	Steps               []Step
	CreatedAt           time.Time
}

// Step is a single instruction of a recipe.
type Step struct {
	Number        int // 1-based
	Text          string
	EstimatedTime int // minutes, 0 if unknown
	Tips          string
}

// StepTexts returns the instruction texts in order.
func (r *Recipe) StepTexts() []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Text
	}
	return out
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID          string
	Name        string
	MealType    string
	CookingTime int
	SkillLevel  string
	TotalSteps  int
	CreatedAt   time.Time
}

// Summarize builds the listing view of a recipe.
func (r *Recipe) Summarize() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		MealType:    r.MealType,
		CookingTime: r.CookingTime,
		SkillLevel:  r.SkillLevel,
		TotalSteps:  len(r.Steps),
		CreatedAt:   r.CreatedAt,
	}
}

// HistoryEntry is one row of a user's recipe history.
type HistoryEntry struct {
	Recipe            RecipeSummary
	Cooked            bool
	Liked             bool
	CookedAt          time.Time
	LastStepCompleted int
}

// UserStats aggregates a user's history.
type UserStats struct {
	Total          int
	Cooked         int
	Liked          int
	CompletionRate float64 // cooked/total, percent
	LikeRate       float64 // liked/cooked, percent
}
