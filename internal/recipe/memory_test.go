package recipe

import (
	"context"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	list, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(Samples()) {
		t.Fatalf("expected %d recipes, got %d", len(Samples()), len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Fatalf("list not sorted: %q before %q", list[i-1].Name, list[i].Name)
		}
	}

	toast, err := src.Get(ctx, "toast")
	if err != nil {
		t.Fatalf("get toast: %v", err)
	}
	if len(toast.Steps) != 2 {
		t.Fatalf("toast has %d steps", len(toast.Steps))
	}

	if _, err := src.Get(ctx, "nonexistent"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, _ := src.Search(ctx, "BREAKFAST")
	if len(found) != 2 {
		t.Fatalf("expected 2 breakfast recipes, got %d", len(found))
	}

	id := src.Put(&domain.Recipe{Name: "Grilled Cheese!", Steps: steps("Grill it")})
	if id != "grilled-cheese" {
		t.Fatalf("derived id = %q", id)
	}
	if _, err := src.Get(ctx, id); err != nil {
		t.Fatalf("get put recipe: %v", err)
	}
}
