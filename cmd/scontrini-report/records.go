package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"scontrini/internal/core"
	"scontrini/internal/report"
)

// selection is the record set chosen by --restaurant, --all, --from and --to.
type selection struct {
	restaurantID int64
	all          bool
	from         string
	to           string
}

func (s *selection) register(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&s.restaurantID, "restaurant", "r", 0, "Restaurant id")
	cmd.Flags().BoolVarP(&s.all, "all", "a", false, "Every restaurant of the user, grouped by date")
	cmd.Flags().StringVar(&s.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&s.to, "to", "", "End date (YYYY-MM-DD), requires --from")
}

var errNoSelection = errors.New("pass --restaurant ID or --all")

func (s selection) validate() (core.DateRange, error) {
	if s.all == (s.restaurantID != 0) {
		return core.DateRange{}, errNoSelection
	}
	return core.NewDateRange(s.from, s.to)
}

// dataset loads the selected records as a flat or grouped report.
func (s selection) dataset(ctx context.Context, a *app) (report.Dataset, error) {
	rng, err := s.validate()
	if err != nil {
		return report.Dataset{}, err
	}
	if s.all {
		groups, err := a.queries.AllRecords(ctx, a.userID, rng)
		if err != nil {
			return report.Dataset{}, err
		}
		return report.Grouped(groups), nil
	}
	restaurant, err := a.ownedRestaurant(ctx, s.restaurantID)
	if err != nil {
		return report.Dataset{}, err
	}
	records, err := a.queries.Records(ctx, restaurant.ID, rng)
	if err != nil {
		return report.Dataset{}, err
	}
	return report.Flat(restaurant.Name, records), nil
}

// ownedRestaurant loads a restaurant and checks it belongs to the user.
func (a *app) ownedRestaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	restaurant, err := a.queries.Restaurant(ctx, id)
	if err != nil {
		return core.Restaurant{}, fmt.Errorf("restaurant %d: %w", id, err)
	}
	if restaurant.UserID != a.userID {
		return core.Restaurant{}, fmt.Errorf("restaurant %d does not belong to %s", id, a.userID)
	}
	return restaurant, nil
}

var recordsSel selection

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List records of a restaurant, or of every restaurant by date",
	RunE:  runRecords,
}

func init() {
	recordsSel.register(recordsCmd)
}

func runRecords(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		rng, err := recordsSel.validate()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if recordsSel.all {
			groups, err := a.queries.AllRecords(ctx, a.userID, rng)
			if err != nil {
				return err
			}
			writeGroups(out, a.formatter, groups)
			return nil
		}
		restaurant, err := a.ownedRestaurant(ctx, recordsSel.restaurantID)
		if err != nil {
			return err
		}
		records, err := a.queries.Records(ctx, restaurant.ID, rng)
		if err != nil {
			return err
		}
		writeRecords(out, a.formatter, records)
		return nil
	})
}

func writeRecords(w io.Writer, f report.Formatter, records []core.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	var total core.Amount
	for _, rec := range records {
		amounts := make([]string, 0, len(rec.Amounts))
		for _, a := range rec.Amounts {
			amounts = append(amounts, f.Amount(a))
		}
		fmt.Fprintf(w, "%-6d %-12s %12s  %s\n", rec.ID, f.Date(rec.IssuedAt), f.Amount(rec.Subtotal()), strings.Join(amounts, " + "))
		total = total.Add(rec.Subtotal())
	}
	fmt.Fprintf(w, "%-19s %12s\n", "Total", f.Amount(total))
}

func writeGroups(w io.Writer, f report.Formatter, groups core.DateGroups) {
	if groups.Len() == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	var total core.Amount
	groups.Each(func(key string, details []core.RecordDetail) {
		fmt.Fprintln(w, f.DateKey(key))
		for _, d := range details {
			fmt.Fprintf(w, "  %-24s %12s\n", d.RestaurantName, f.Amount(d.Subtotal()))
			total = total.Add(d.Subtotal())
		}
	})
	fmt.Fprintf(w, "%-26s %12s\n", "Total", f.Amount(total))
}
