package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Files written by Export.
const (
	FileRecipe   = "recipe.json"
	FileSteps    = "steps.json"
	FileMetadata = "metadata.json"
)

type flatDoc struct {
	Name                string   `json:"name"`
	MealType            string   `json:"meal_type,omitempty"`
	CookingTime         int      `json:"cooking_time,omitempty"`
	SkillLevel          string   `json:"skill_level,omitempty"`
	DietaryRestrictions string   `json:"dietary_restrictions,omitempty"`
	Ingredients         []string `json:"ingredients"`
	Instructions        []string `json:"instructions"`
}

type stepEntry struct {
	StepNumber int    `json:"step_number"`
	Text       string `json:"text"`
}

type stepsDoc struct {
	RecipeName  string      `json:"recipe_name"`
	Steps       []stepEntry `json:"steps"`
	Ingredients []string    `json:"ingredients"`
}

type metadataDoc struct {
	Name                string `json:"name"`
	MealType            string `json:"meal_type"`
	CookingTime         int    `json:"cooking_time"`
	SkillLevel          string `json:"skill_level"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	TotalSteps          int    `json:"total_steps"`
}

// Export writes r into dir as recipe.json (flat instructions form),
// steps.json (numbered steps, the voice-guidance form) and metadata.json.
// Both recipe files load back through LoadFile.
func Export(dir string, r *domain.Recipe) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	texts := r.StepTexts()
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	steps := make([]stepEntry, len(texts))
	for i, t := range texts {
		steps[i] = stepEntry{StepNumber: i + 1, Text: t}
	}

	docs := []struct {
		name string
		v    any
	}{
		{FileRecipe, flatDoc{
			Name:                r.Name,
			MealType:            r.MealType,
			CookingTime:         r.CookingTime,
			SkillLevel:          r.SkillLevel,
			DietaryRestrictions: r.DietaryRestrictions,
			Ingredients:         ingredients,
			Instructions:        texts,
		}},
		{FileSteps, stepsDoc{RecipeName: r.Name, Steps: steps, Ingredients: ingredients}},
		{FileMetadata, metadataDoc{
			Name:                r.Name,
			MealType:            r.MealType,
			CookingTime:         r.CookingTime,
			SkillLevel:          r.SkillLevel,
			DietaryRestrictions: r.DietaryRestrictions,
			TotalSteps:          len(texts),
		}},
	}

	for _, d := range docs {
		if err := writeJSON(filepath.Join(dir, d.name), d.v); err != nil {
			return err
		}
	}
	return nil
}

// writeJSON writes through a temp file so readers never see a partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist %s: %w", filepath.Base(path), err)
	}
	return nil
}
