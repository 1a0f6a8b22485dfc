package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var restaurantsCmd = &cobra.Command{
	Use:   "restaurants",
	Short: "List the restaurants of the user",
	RunE:  runRestaurants,
}

func runRestaurants(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		list, err := a.queries.Restaurants(ctx, a.userID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No restaurants.")
			return nil
		}
		for _, r := range list {
			fmt.Fprintf(out, "%-6d %s\n", r.ID, r.Name)
		}
		return nil
	})
}
