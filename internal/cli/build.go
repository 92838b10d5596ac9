package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/restpilot/restpilot/internal/httpengine"
)

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <recipe-id>",
		Short: "Render a recipe and print the resulting request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID := args[0]
			rc, err := renderContext(cmd, a)
			if err != nil {
				return err
			}

			seed := httpengine.RequestSeed{ID: uuid.NewString(), RecipeID: recipeID}
			a.states.Start(seed.ID, rc.ProfileID, recipeID, nil)

			ticket, err := a.engine.Build(cmd.Context(), seed, rc)
			if err != nil {
				a.states.BuildError(seed.ID, err)
				return err
			}
			a.states.Loading(seed.ID, ticket.Record)

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ticket.Request.Method, ticket.Request.URL.String())
			for name, values := range ticket.Request.Header {
				for _, v := range values {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, v)
				}
			}
			if len(ticket.Record.Body) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", formatBody(ticket.Request.Header.Get("Content-Type"), ticket.Record.Body))
			}
			return nil
		},
	}
}

func newBuildURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build-url <recipe-id>",
		Short: "Render a recipe's URL, including its query string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID := args[0]
			rc, err := renderContext(cmd, a)
			if err != nil {
				return err
			}
			url, err := a.engine.BuildURL(cmd.Context(), httpengine.RequestSeed{ID: uuid.NewString(), RecipeID: recipeID}, rc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newBuildBodyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build-body <recipe-id>",
		Short: "Render a recipe's body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID := args[0]
			rc, err := renderContext(cmd, a)
			if err != nil {
				return err
			}
			body, has, err := a.engine.BuildBody(cmd.Context(), httpengine.RequestSeed{ID: uuid.NewString(), RecipeID: recipeID}, rc)
			if err != nil {
				return err
			}
			if has {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
			}
			return nil
		},
	}
}

func newBuildCurlCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build-curl <recipe-id>",
		Short: "Render a recipe as an equivalent curl command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID := args[0]
			rc, err := renderContext(cmd, a)
			if err != nil {
				return err
			}
			line, err := a.engine.BuildCurl(cmd.Context(), httpengine.RequestSeed{ID: uuid.NewString(), RecipeID: recipeID}, rc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}
