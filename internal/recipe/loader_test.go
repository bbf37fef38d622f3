package recipe

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		body        string
		wantName    string
		wantSteps   []string
		wantIngreds []string
	}{
		{
			name:        "numbered steps",
			file:        "steps.json",
			body:        `{"recipe_name": "Toast", "steps": [{"step_number": 1, "text": "Put bread in toaster"}, {"step_number": 2, "text": "Wait 3 minutes"}], "ingredients": ["bread"]}`,
			wantName:    "Toast",
			wantSteps:   []string{"Put bread in toaster", "Wait 3 minutes"},
			wantIngreds: []string{"bread"},
		},
		{
			name:        "plain string steps",
			file:        "plain.json",
			body:        `{"name": "Tea", "steps": ["Boil water", "Steep"], "ingredients": ["tea bag", "water"]}`,
			wantName:    "Tea",
			wantSteps:   []string{"Boil water", "Steep"},
			wantIngreds: []string{"tea bag", "water"},
		},
		{
			name:        "instructions",
			file:        "flat.json",
			body:        `{"name": "Salad", "instructions": ["Wash leaves", "Toss with dressing"], "ingredients": ["lettuce"], "meal_type": "lunch", "cooking_time": 10}`,
			wantName:    "Salad",
			wantSteps:   []string{"Wash leaves", "Toss with dressing"},
			wantIngreds: []string{"lettuce"},
		},
		{
			name:      "missing name",
			file:      "anon.json",
			body:      `{"instructions": ["Do it"]}`,
			wantName:  "Unknown Recipe",
			wantSteps: []string{"Do it"},
		},
		{
			name:        "yaml",
			file:        "soup.yaml",
			body:        "name: Soup\ninstructions:\n  - Chop onions\n  - Simmer\ningredients:\n  - onion\n",
			wantName:    "Soup",
			wantSteps:   []string{"Chop onions", "Simmer"},
			wantIngreds: []string{"onion"},
		},
		{
			name:      "empty steps",
			file:      "empty.json",
			body:      `{"name": "Nothing", "steps": []}`,
			wantName:  "Nothing",
			wantSteps: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.body)
			r, err := LoadFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Name != tt.wantName {
				t.Errorf("name = %q, want %q", r.Name, tt.wantName)
			}
			if got := r.StepTexts(); !reflect.DeepEqual(got, tt.wantSteps) {
				t.Errorf("steps = %q, want %q", got, tt.wantSteps)
			}
			if len(r.Ingredients) != len(tt.wantIngreds) {
				t.Errorf("ingredients = %q, want %q", r.Ingredients, tt.wantIngreds)
			}
			for i, s := range r.Steps {
				if s.Number != i+1 {
					t.Errorf("step %d numbered %d", i, s.Number)
				}
			}
		})
	}
}

func TestLoadFileFailures(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"malformed json", writeFile(t, dir, "bad.json", `{"name": "Broken", "steps": [`)},
		{"no steps", writeFile(t, dir, "nosteps.json", `{"name": "Hollow", "ingredients": ["air"]}`)},
		{"numeric step", writeFile(t, dir, "num.json", `{"name": "N", "steps": [1, 2]}`)},
		{"object without text", writeFile(t, dir, "obj.json", `{"recipe_name": "O", "steps": [{"step_number": 1}]}`)},
		{"mixed bad entry", writeFile(t, dir, "mixed.json", `{"name": "M", "instructions": ["ok", {"nope": true}]}`)},
		{"blank step", writeFile(t, dir, "blank.json", `{"name": "B", "instructions": ["  "]}`)},
		{"bad cooking time", writeFile(t, dir, "time.json", `{"name": "T", "instructions": ["ok"], "cooking_time": "a while"}`)},
		{"cooking time object", writeFile(t, dir, "timeobj.json", `{"name": "T", "instructions": ["ok"], "cooking_time": {"min": 5}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadFile(tt.path)
			if err == nil {
				t.Fatalf("expected error, got recipe %+v", r)
			}
			var loadErr *domain.RecipeLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected RecipeLoadError, got %T: %v", err, err)
			}
			if r != nil {
				t.Fatal("a failed load must not return a recipe")
			}
		})
	}
}

func TestParseCookingTime(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{`25`, 25},
		{`"25"`, 25},
		{`"25 minutes"`, 25},
		{`"10 min."`, 10},
		{`"1 Minute"`, 1},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r, err := Parse([]byte(`{"name": "T", "instructions": ["ok"], "cooking_time": ` + tt.value + `}`))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if r.CookingTime != tt.want {
				t.Errorf("CookingTime = %d, want %d", r.CookingTime, tt.want)
			}
		})
	}
}

func TestLoadFileCompanionIngredients(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recipe.json", `{"name": "Toast", "instructions": ["Toast it"], "ingredients": ["bread", "butter"]}`)
	path := writeFile(t, dir, "steps.json", `{"recipe_name": "Toast", "steps": [{"step_number": 1, "text": "Toast it"}]}`)

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(r.Ingredients, []string{"bread", "butter"}) {
		t.Fatalf("ingredients = %q", r.Ingredients)
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := Samples()[1]

	if err := Export(dir, src); err != nil {
		t.Fatalf("export: %v", err)
	}

	for _, name := range []string{FileRecipe, FileSteps} {
		got, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.Name != src.Name {
			t.Errorf("%s: name = %q, want %q", name, got.Name, src.Name)
		}
		if !reflect.DeepEqual(got.StepTexts(), src.StepTexts()) {
			t.Errorf("%s: steps differ", name)
		}
		if !reflect.DeepEqual(got.Ingredients, src.Ingredients) {
			t.Errorf("%s: ingredients differ", name)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, FileMetadata)); err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
}
