package engine

// lines.go centralises every string the controller speaks. Keep lines
// short and direct; the TTS engine handles inflection.

import (
	"fmt"
	"regexp"
	"strings"
)

func LineWelcome(recipeName string) string {
	return fmt.Sprintf("Hi! I'm Sous-Chef, your cooking assistant for %s. "+
		"Say 'next' to continue, 'repeat' to hear again, 'ingredients' for the ingredient list, or ask any cooking question.", recipeName)
}

func LineStep(index int, text string) string {
	return fmt.Sprintf("Step %d: %s", index+1, text)
}

func LineCompleted() string {
	return "Perfect! Recipe completed! Great job cooking!"
}

func LineNoSteps() string {
	return "This recipe has no steps, so there is nothing to guide. Enjoy!"
}

func LineStop() string {
	return "Ending the recipe guide."
}

func LineCaution() string {
	return "Moving to next step. This involves temperature control - be careful!"
}

// LineIngredients reads the ingredient list as one sentence.
func LineIngredients(recipeName string, ingredients []string) string {
	if len(ingredients) == 0 {
		return "I don't have the ingredients list available for this recipe."
	}
	return fmt.Sprintf("Here are the ingredients for %s: %s", recipeName, strings.Join(ingredients, ", "))
}

// LineContinue is appended to every answered question.
func LineContinue() string {
	return " Say 'Next' to continue cooking, or ask another question if you're still unsure."
}

func LineRephrase() string {
	return "I'm having trouble with that question. Could you try rephrasing it?"
}

func LineNoVoice() string {
	return "Voice not detected. Type your command:"
}

func LineNoInput() string {
	return "I didn't hear anything, so I'll stop here. Come back any time."
}

// heatWords marks steps that earn a caution when the user moves onto them.
var heatWords = regexp.MustCompile(`(?i)\b(heat|heated|heating|temperature|preheat|oven|boil|boiling|fry|frying)\b`)

func needsCaution(step string) bool {
	return heatWords.MatchString(step)
}
