package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/restpilot/restpilot/internal/httpengine"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipe-id>",
		Short: "Build a recipe and send it, printing the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID := args[0]
			rc, err := renderContext(cmd, a)
			if err != nil {
				return err
			}

			recipe, ok := rc.Collection.RecipeByID(recipeID)
			if !ok {
				return fmt.Errorf("unknown recipe %q", recipeID)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			seed := httpengine.RequestSeed{ID: uuid.NewString(), RecipeID: recipeID}
			a.states.Start(seed.ID, rc.ProfileID, recipeID, cancel)

			ticket, err := a.engine.Build(ctx, seed, rc)
			if err != nil {
				a.states.BuildError(seed.ID, err)
				return err
			}
			a.states.Loading(seed.ID, ticket.Record)

			ex, err := ticket.Send(ctx)
			if err != nil {
				a.states.RequestError(seed.ID, err)
				return err
			}
			if err := a.states.Complete(seed.ID, ex, recipe.Persist); err != nil {
				return fmt.Errorf("persisting exchange: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", ex.Response.Status, ex.Duration())
			for name, values := range ex.Response.Headers {
				for _, v := range values {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, v)
				}
			}
			if len(ex.Response.Body) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", formatBody(ex.ContentType(), ex.Response.Body))
			}
			return nil
		},
	}
}
