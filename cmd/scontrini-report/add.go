package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"scontrini/internal/core"
	"scontrini/internal/mutation"
	"scontrini/internal/report/term"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(term.ColorGreen)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D14D41"))
)

var (
	flagAddRestaurant int64
	flagAddDate       string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a restaurant or a record",
}

var addRestaurantCmd = &cobra.Command{
	Use:   "restaurant NAME",
	Short: "Add a restaurant",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddRestaurant,
}

var addRecordCmd = &cobra.Command{
	Use:   "record AMOUNT...",
	Short: "Add amounts to a restaurant on a date, merging with an existing record",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAddRecord,
}

func init() {
	addRecordCmd.Flags().Int64VarP(&flagAddRestaurant, "restaurant", "r", 0, "Restaurant id")
	addRecordCmd.Flags().StringVarP(&flagAddDate, "date", "d", "", "Issue date (YYYY-MM-DD)")

	addCmd.AddCommand(addRestaurantCmd)
	addCmd.AddCommand(addRecordCmd)
}

// printNotifier writes mutation notifications to stderr.
func printNotifier(cmd *cobra.Command) mutation.Notifier {
	return mutation.NotifierFunc(func(_ context.Context, n mutation.Notification) {
		if n.Kind == mutation.KindError {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(n.Message))
			return
		}
		fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render(n.Message))
	})
}

func runAddRestaurant(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out, err := a.mutations.AddRestaurant(ctx, core.AddRestaurantInput{Name: args[0], UserID: a.userID}, printNotifier(cmd))
		if err != nil {
			return err
		}
		return out.Err
	})
}

func runAddRecord(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if flagAddRestaurant == 0 {
			return core.ErrNoRestaurant
		}
		restaurant, err := a.ownedRestaurant(ctx, flagAddRestaurant)
		if err != nil {
			return err
		}
		in := core.AddRecordInput{
			RestaurantID: restaurant.ID,
			UserID:       a.userID,
			IssuedAt:     flagAddDate,
			Amounts:      args,
		}
		out, err := a.mutations.AddRecord(ctx, in, printNotifier(cmd))
		if err != nil {
			return err
		}
		if out.Err != nil {
			return out.Err
		}
		// The stored record may hold amounts merged from an earlier entry.
		date, err := core.ParseDate(flagAddDate)
		if err != nil {
			return err
		}
		records, err := a.queries.Records(ctx, restaurant.ID, core.DateRange{})
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.IssuedAt.Equal(date) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s: %s\n", restaurant.Name, rec.ID,
					a.formatter.Date(rec.IssuedAt), a.formatter.Amount(rec.Subtotal()))
			}
		}
		return nil
	})
}
