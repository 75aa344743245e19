package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func newLoadIngredientsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "load-ingredients <file.json>",
		Short: "Load ingredients from a JSON array of {name, measurement_unit}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ingredients []models.Ingredient
			if err := readJSON(args[0], &ingredients); err != nil {
				return err
			}

			env, err := open(cmd.Context())
			if err != nil {
				return err
			}
			created, err := service.NewIngredientService(env.DB).Load(cmd.Context(), ingredients)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d ingredients (%d already present)\n", created, len(ingredients)-created)
			return nil
		},
	}
}

func newLoadTagsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "load-tags <file.json>",
		Short: "Create or update tags from a JSON array of {name, color, slug}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tags []models.Tag
			if err := readJSON(args[0], &tags); err != nil {
				return err
			}
			for i, tag := range tags {
				if tag.Name == "" || tag.Slug == "" {
					return fmt.Errorf("tag %d: name and slug are required", i)
				}
			}

			env, err := open(cmd.Context())
			if err != nil {
				return err
			}
			tagService, err := service.NewTagService(env.DB, 1)
			if err != nil {
				return err
			}
			if err := tagService.Load(cmd.Context(), tags); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tags\n", len(tags))
			return nil
		},
	}
}
