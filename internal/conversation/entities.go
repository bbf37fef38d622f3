package conversation

import (
	"strings"
	"unicode"
)

// ExtractEntities returns the recipe ingredients mentioned in the
// utterance, in ingredient order. An ingredient counts as mentioned when
// its key word (the last word of three or more letters, so "2 slices of
// bread" keys on "bread") appears as a whole word.
func ExtractEntities(utterance string, ingredients []string) []string {
	words := make(map[string]bool)
	for _, w := range splitWords(utterance) {
		words[w] = true
		// Plural mentions of a singular ingredient.
		words[strings.TrimSuffix(w, "s")] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, ing := range ingredients {
		key := keyWord(ing)
		if key == "" || seen[ing] {
			continue
		}
		if words[key] || words[strings.TrimSuffix(key, "s")] {
			out = append(out, ing)
			seen[ing] = true
		}
	}
	return out
}

func keyWord(ingredient string) string {
	ws := splitWords(ingredient)
	for i := len(ws) - 1; i >= 0; i-- {
		if len(ws[i]) >= 3 {
			return ws[i]
		}
	}
	return ""
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
