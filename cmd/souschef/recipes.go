package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/recipe"
	"github.com/hammamikhairi/souschef/internal/storage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fde68a"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
)

func newRecipesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List, search, show, import and export stored recipes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored recipes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				list, err := db.List(cmd.Context())
				if err != nil {
					return err
				}
				printSummaries(cmd.OutOrStdout(), list)
				return nil
			},
		},
		newSearchCmd(a),
		&cobra.Command{
			Use:   "show ID",
			Short: "Show a recipe's ingredients and steps",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				r, err := db.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("recipe %s: %w", args[0], err)
				}
				printRecipe(cmd.OutOrStdout(), r)
				return nil
			},
		},
		newImportCmd(a),
		&cobra.Command{
			Use:   "export ID DIR",
			Short: "Write a recipe as recipe.json, steps.json and metadata.json",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				r, err := db.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("recipe %s: %w", args[0], err)
				}
				if err := recipe.Export(args[1], r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", r.Name, args[1])
				return nil
			},
		},
	)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var by, user string
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search recipes by name, or a user's cooked or liked recipes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var list []domain.RecipeSummary
			switch by {
			case "name":
				if len(args) == 0 {
					return fmt.Errorf("search by name needs a QUERY")
				}
				list, err = db.Search(ctx, args[0])
			case "cooked", "liked":
				if err := requireUser(user); err != nil {
					return err
				}
				userID, uerr := db.AddUser(ctx, user)
				if uerr != nil {
					return uerr
				}
				filter := storage.FilterCooked
				if by == "liked" {
					filter = storage.FilterLiked
				}
				list, err = db.SearchHistory(ctx, userID, filter)
			default:
				return fmt.Errorf("--by must be name, cooked or liked, got %q", by)
			}
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "name", "search mode: name, cooked or liked")
	cmd.Flags().StringVar(&user, "user", "", "user for cooked/liked searches")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a recipe file (JSON or YAML) in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.LoadFile(args[0])
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			userID, err := a.user(cmd, db, user)
			if err != nil {
				return err
			}
			id, err := db.SaveRecipe(cmd.Context(), r, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as recipe %s (%d steps)\n", r.Name, id, len(r.Steps))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "also add the recipe to this user's history")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's recipe history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			userID, err := db.AddUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			entries, err := db.History(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No history yet."))
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				cooked := ""
				if e.Cooked {
					cooked = e.CookedAt.Local().Format(time.DateOnly)
				}
				rows = append(rows, []string{
					e.Recipe.ID, e.Recipe.Name, cooked, yesNo(e.Liked),
					fmt.Sprintf("%d/%d", e.LastStepCompleted, e.Recipe.TotalSteps),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Recipe", "Cooked", "Liked", "Progress"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user name")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's cooking statistics and the intent mix from the turn log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			userID, err := db.AddUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			st, err := db.Stats(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Stats for "+user))
			fmt.Fprintf(out, "  Recipes:    %d\n", st.Total)
			fmt.Fprintf(out, "  Cooked:     %d (%.1f%%)\n", st.Cooked, st.CompletionRate)
			fmt.Fprintf(out, "  Liked:      %d (%.1f%% of cooked)\n", st.Liked, st.LikeRate)

			if profile, err := db.LoadProfile(cmd.Context(), userID); err == nil {
				fmt.Fprintf(out, "  Pace:       %s\n", profile.Pace)
				fmt.Fprintf(out, "  Skill:      %s\n", profile.SkillLevel())
			}

			records, err := storage.NewTurnLog(a.cfg.TurnLog.Path).LoadSince(time.Time{})
			if err != nil {
				return err
			}
			counts := storage.IntentCounts(records)
			if len(counts) == 0 {
				return nil
			}
			labels := make([]string, 0, len(counts))
			for l := range counts {
				labels = append(labels, l)
			}
			sort.Slice(labels, func(i, j int) bool {
				if counts[labels[i]] != counts[labels[j]] {
					return counts[labels[i]] > counts[labels[j]]
				}
				return labels[i] < labels[j]
			})
			rows := make([][]string, len(labels))
			for i, l := range labels {
				rows[i] = []string{l, strconv.Itoa(counts[l])}
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Turns logged (all users): %d", len(records))))
			fmt.Fprintln(out, renderTable([]string{"Intent", "Turns"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user name")
	return cmd
}

func newMarkCmd(a *app) *cobra.Command {
	var (
		user  string
		liked bool
	)
	cmd := &cobra.Command{
		Use:   "mark ID",
		Short: "Mark a recipe as cooked, optionally liked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(user); err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			userID, err := db.AddUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			if err := db.MarkCooked(cmd.Context(), userID, args[0], liked); err != nil {
				return fmt.Errorf("recipe %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked recipe %s as cooked%s.\n", args[0], map[bool]string{true: " and liked"}[liked])
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user name")
	cmd.Flags().BoolVar(&liked, "liked", false, "also mark the recipe as liked")
	return cmd
}

func printSummaries(w io.Writer, list []domain.RecipeSummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No recipes found."))
		return
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		mins := ""
		if r.CookingTime > 0 {
			mins = fmt.Sprintf("%d min", r.CookingTime)
		}
		rows = append(rows, []string{r.ID, r.Name, r.MealType, mins, r.SkillLevel, strconv.Itoa(r.TotalSteps)})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Meal", "Time", "Skill", "Steps"}, rows))
}

func printRecipe(w io.Writer, r *domain.Recipe) {
	fmt.Fprintln(w, headerStyle.Render("=== "+r.Name+" ==="))
	var meta []string
	for _, m := range []string{r.MealType, r.SkillLevel, r.DietaryRestrictions} {
		if m != "" {
			meta = append(meta, m)
		}
	}
	if r.CookingTime > 0 {
		meta = append(meta, fmt.Sprintf("%d min", r.CookingTime))
	}
	if len(meta) > 0 {
		fmt.Fprintln(w, dimStyle.Render(strings.Join(meta, " · ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Ingredients:"))
	for _, ing := range r.Ingredients {
		fmt.Fprintf(w, "  - %s\n", ing)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Steps:"))
	for i, s := range r.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.Text)
	}
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
