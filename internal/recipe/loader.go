package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Accepted document shapes:
//
//	{"recipe_name": "...", "steps": [{"step_number": 1, "text": "..."}], "ingredients": [...]}
//	{"name": "...", "steps": ["...", "..."], "ingredients": [...]}
//	{"name": "...", "instructions": ["...", "..."], "ingredients": [...]}
//
// YAML files use the same keys.

const unknownName = "Unknown Recipe"

// companionFile is consulted for ingredients when a steps-only file has none.
const companionFile = "recipe.json"

var (
	errNoSteps   = errors.New("document has neither steps nor instructions")
	errBadStep   = errors.New("step is neither a {text} object nor a string")
	errEmptyStep = errors.New("step text is empty")
)

// rawStep is the object form of a step entry.
type rawStep struct {
	StepNumber    int     `json:"step_number"`
	Text          *string `json:"text"`
	EstimatedTime int     `json:"estimated_time"`
	Tips          string  `json:"tips"`
}

// LoadFile reads a recipe document from disk and normalizes it. Any
// failure is returned as a *domain.RecipeLoadError.
func LoadFile(path string) (*domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.RecipeLoadError{Source: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, &domain.RecipeLoadError{Source: path, Err: err}
		}
	}

	r, err := Parse(data)
	if err != nil {
		return nil, &domain.RecipeLoadError{Source: path, Err: err}
	}

	if len(r.Ingredients) == 0 && filepath.Base(path) != companionFile {
		r.Ingredients = companionIngredients(filepath.Join(filepath.Dir(path), companionFile))
	}
	return r, nil
}

// Parse normalizes a JSON recipe document.
func Parse(data []byte) (*domain.Recipe, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}

	r := &domain.Recipe{Name: unknownName}

	rawSteps, ok := doc["steps"]
	if !ok || !isArray(rawSteps) {
		if rawSteps, ok = doc["instructions"]; !ok {
			return nil, errNoSteps
		}
	}

	steps, err := parseSteps(rawSteps)
	if err != nil {
		return nil, err
	}
	r.Steps = steps

	for _, key := range []string{"recipe_name", "name"} {
		if name := stringField(doc, key); name != "" {
			r.Name = name
			break
		}
	}

	if raw, ok := doc["ingredients"]; ok {
		if err := json.Unmarshal(raw, &r.Ingredients); err != nil {
			return nil, fmt.Errorf("ingredients: %w", err)
		}
	}

	r.MealType = stringField(doc, "meal_type")
	r.SkillLevel = stringField(doc, "skill_level")
	r.DietaryRestrictions = stringField(doc, "dietary_restrictions")
	if raw, ok := doc["cooking_time"]; ok {
		if r.CookingTime, err = parseMinutes(raw); err != nil {
			return nil, fmt.Errorf("cooking_time: %w", err)
		}
	}
	return r, nil
}

// minutesText matches "25", "25 min" and "25 minutes".
var minutesText = regexp.MustCompile(`(?i)^\s*(\d+)\s*(m|min|mins|minutes?)?\.?\s*$`)

// parseMinutes accepts a number of minutes or a string such as
// "25 minutes". Null means unknown.
func parseMinutes(raw json.RawMessage) (int, error) {
	if string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("want minutes, got %s", raw)
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	m := minutesText.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("want minutes, got %q", text)
	}
	return strconv.Atoi(m[1])
}

// parseSteps accepts a list whose entries are each either a {text}
// object or a plain string.
func parseSteps(raw json.RawMessage) ([]domain.Step, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("steps: %w", err)
	}

	steps := make([]domain.Step, 0, len(entries))
	for i, e := range entries {
		step := domain.Step{Number: i + 1}

		var text string
		var obj rawStep
		switch {
		case json.Unmarshal(e, &text) == nil:
			step.Text = strings.TrimSpace(text)
		case json.Unmarshal(e, &obj) == nil && obj.Text != nil:
			step.Text = strings.TrimSpace(*obj.Text)
			step.EstimatedTime = obj.EstimatedTime
			step.Tips = obj.Tips
		default:
			return nil, fmt.Errorf("step %d: %w", i+1, errBadStep)
		}

		if step.Text == "" {
			return nil, fmt.Errorf("step %d: %w", i+1, errEmptyStep)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func companionIngredients(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc struct {
		Ingredients []string `json:"ingredients"`
	}
	if json.Unmarshal(data, &doc) != nil {
		return nil
	}
	return doc.Ingredients
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if v == nil {
		return nil, errNoSteps
	}
	return json.Marshal(v)
}

func stringField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}
