package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/recipe"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		req  recipe.GenerateRequest
		have []string
		user string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new recipe with the completion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := a.agent(false)
			if agent == nil {
				return errors.New("generate needs a completion service: set GPT_CHAT_KEY (or OPENAI_API_KEY)")
			}
			for _, h := range have {
				if h = strings.TrimSpace(h); h != "" {
					req.Available = append(req.Available, h)
				}
			}

			r, err := agent.GenerateRecipe(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printRecipe(out, r)

			if !save && user == "" {
				return nil
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
			fmt.Fprintln(out)
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Saved as recipe %s. Cook it with: souschef cook --recipe-id %s", id, id)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.MealType, "meal-type", "dinner", "breakfast, lunch, dinner, snack or dessert")
	f.IntVar(&req.MaxMinutes, "minutes", 30, "maximum cooking time in minutes")
	f.StringVar(&req.SkillLevel, "skill", "beginner", "beginner, intermediate or advanced")
	f.StringVar(&req.DietaryRestrictions, "diet", "", "dietary restrictions, e.g. vegetarian")
	f.StringSliceVar(&have, "have", nil, "ingredients on hand (comma separated)")
	f.StringVar(&user, "user", "", "save the recipe to this user's history")
	f.BoolVar(&save, "save", false, "store the generated recipe in the database")
	return cmd
}
