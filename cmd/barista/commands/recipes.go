package commands

import (
	"github.com/spf13/cobra"

	"github.com/openfroyo/barista/pkg/console"
	"github.com/openfroyo/barista/pkg/recipe"
)

type recipeView struct {
	Product recipe.Product `json:"product"`
	Name    string         `json:"name"`
	Water   int            `json:"water_ml"`
	Beans   int            `json:"beans_g"`
	Milk    int            `json:"milk_ml"`
}

func newRecipesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "Show the recipe table",
		Example: `  barista recipes
  barista recipes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jsonOutput {
				return console.WriteRecipes(cmd.OutOrStdout())
			}

			views := make([]recipeView, 0, len(recipe.Products()))
			for _, p := range recipe.Products() {
				r := p.Recipe()
				views = append(views, recipeView{
					Product: p,
					Name:    p.DisplayName(),
					Water:   r.Water,
					Beans:   r.Beans,
					Milk:    r.Milk,
				})
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}
}
