// Package recipe loads, exports, generates and serves recipes.
package recipe

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// MemorySource holds recipes in memory. It ships with a few sample recipes
// so the assistant can run without a database. Safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with the samples.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
	for _, r := range Samples() {
		src.recipes[r.ID] = r
	}
	log.Debug("seeded %d sample recipes", len(src.recipes))
	return src
}

// List returns summaries of all recipes, sorted by name.
func (s *MemorySource) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, r.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a recipe by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Put stores a recipe under its ID, deriving one from the name when empty.
func (s *MemorySource) Put(r *domain.Recipe) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = slug(r.Name)
	}
	s.recipes[r.ID] = r
	return r.ID
}

// Search returns recipes whose name or meal type contains the query.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	s.log.Debug("searching recipes for: %s", q)

	var out []domain.RecipeSummary
	for _, r := range s.recipes {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.MealType), q) {
			out = append(out, r.Summarize())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Samples returns fresh copies of the built-in recipes.
func Samples() []*domain.Recipe {
	return []*domain.Recipe{toast(), scrambledEggs(), stirFry()}
}

func steps(texts ...string) []domain.Step {
	out := make([]domain.Step, len(texts))
	for i, t := range texts {
		out[i] = domain.Step{Number: i + 1, Text: t}
	}
	return out
}

func toast() *domain.Recipe {
	return &domain.Recipe{
		ID:          "toast",
		Name:        "Toast",
		MealType:    "breakfast",
		CookingTime: 5,
		SkillLevel:  "beginner",
		Ingredients: []string{"2 slices of bread", "butter"},
		Steps:       steps("Put bread in toaster", "Wait 3 minutes"),
	}
}

func scrambledEggs() *domain.Recipe {
	return &domain.Recipe{
		ID:          "scrambled-eggs",
		Name:        "Scrambled Eggs",
		MealType:    "breakfast",
		CookingTime: 10,
		SkillLevel:  "beginner",
		Ingredients: []string{"3 eggs", "1 tablespoon butter", "2 tablespoons milk", "salt", "black pepper"},
		Steps: steps(
			"Crack the eggs into a bowl, add the milk and a pinch of salt, and whisk until no streaks of white remain.",
			"Melt the butter in a non-stick pan over medium-low heat.",
			"Pour in the eggs and let them sit for 20 seconds before stirring.",
			"Push the eggs slowly from the edges to the center with a spatula until soft curds form.",
			"Take the pan off the heat while the eggs still look slightly wet, season with pepper and serve.",
		),
	}
}

func stirFry() *domain.Recipe {
	return &domain.Recipe{
		ID:          "vegetable-stir-fry",
		Name:        "Vegetable Stir Fry",
		MealType:    "dinner",
		CookingTime: 25,
		SkillLevel:  "intermediate",
		Ingredients: []string{
			"1 red bell pepper", "2 cups broccoli florets", "1 carrot", "3 cloves garlic",
			"1 tablespoon grated ginger", "2 tablespoons soy sauce", "1 tablespoon sesame oil",
			"2 tablespoons vegetable oil",
		},
		Steps: steps(
			"Cut the pepper into strips, the broccoli into small florets and the carrot into thin sticks. Mince the garlic.",
			"Stir the soy sauce and sesame oil together with two tablespoons of water.",
			"Heat the vegetable oil in a wok over high heat until it shimmers.",
			"Add the broccoli and carrot and cook for two minutes, then add the pepper for two more.",
			"Make a space in the middle, add garlic and ginger and cook for 30 seconds.",
			"Pour in the sauce, toss everything to coat and serve right away.",
		),
	}
}
