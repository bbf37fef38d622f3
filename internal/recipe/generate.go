package recipe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// GenerateRequest describes the recipe a user wants generated.
type GenerateRequest struct {
	MealType            string
	MaxMinutes          int
	SkillLevel          string
	DietaryRestrictions string
	Available           []string
}

// BuildPrompt renders the generation prompt. The model is asked for a
// fixed plain-text layout that ParseGenerated understands.
func BuildPrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please suggest a %s recipe that:\n", req.MealType)
	fmt.Fprintf(&b, "- Takes %d minutes or less to prepare\n", req.MaxMinutes)
	fmt.Fprintf(&b, "- Is suitable for a %s cook\n", req.SkillLevel)
	if len(req.Available) > 0 {
		fmt.Fprintf(&b, "- Uses some of these available ingredients: %s\n", strings.Join(req.Available, ", "))
	}
	if req.DietaryRestrictions != "" {
		fmt.Fprintf(&b, "\nMust be %s\n", req.DietaryRestrictions)
	}
	b.WriteString(`
Please provide the recipe in this format:
Recipe Name: [name]
Cooking Time: [time in minutes]
Ingredients:
- [ingredient 1]
- [ingredient 2]
Instructions:
1. [step 1]
2. [step 2]
`)
	return b.String()
}

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionInstructions
)

// ParseGenerated turns a model reply in the BuildPrompt layout into a
// recipe. Instruction lines must start with a digit, "-" or "•"; other
// lines under Instructions are commentary and dropped.
func ParseGenerated(text string, req GenerateRequest) (*domain.Recipe, error) {
	r := &domain.Recipe{
		MealType:            req.MealType,
		CookingTime:         req.MaxMinutes,
		SkillLevel:          req.SkillLevel,
		DietaryRestrictions: req.DietaryRestrictions,
	}

	current := sectionNone
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		first := []rune(line)[0]
		if head, content, ok := strings.Cut(line, ":"); ok && unicode.IsLetter(first) {
			head = strings.ToLower(strings.TrimSpace(head))
			content = strings.TrimSpace(content)
			switch {
			case strings.Contains(head, "recipe name"):
				r.Name = content
				continue
			case strings.Contains(head, "ingredients"):
				current = sectionIngredients
				if content != "" {
					r.Ingredients = append(r.Ingredients, content)
				}
				continue
			case strings.Contains(head, "instructions"):
				current = sectionInstructions
				if content != "" {
					r.Steps = append(r.Steps, domain.Step{Number: len(r.Steps) + 1, Text: content})
				}
				continue
			case current == sectionNone:
				// Cooking Time and other header lines.
				continue
			}
		}

		switch current {
		case sectionIngredients:
			r.Ingredients = append(r.Ingredients, strings.TrimLeft(line, "- "))
		case sectionInstructions:
			if unicode.IsDigit(first) || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
				step := strings.TrimLeft(line, "0123456789.- •")
				if step != "" {
					r.Steps = append(r.Steps, domain.Step{Number: len(r.Steps) + 1, Text: step})
				}
			}
		}
	}

	if r.Name == "" {
		return nil, fmt.Errorf("generated recipe has no name")
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("generated recipe %q has no instructions", r.Name)
	}
	return r, nil
}
