package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scontrini/internal/report"
	"scontrini/internal/report/term"
	"scontrini/internal/report/xlsx"
)

var (
	printSel  selection
	flagXLSX  string
	flagLimit int
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the receipt of a selection, or export it with --xlsx",
	RunE:  runPrint,
}

func init() {
	printSel.register(printCmd)
	printCmd.Flags().StringVarP(&flagXLSX, "xlsx", "o", "", "Write a spreadsheet to this path instead of printing")
	printCmd.Flags().IntVar(&flagLimit, "column-limit", report.ColumnLimit, "Rows above which the receipt splits into two columns")
}

func runPrint(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		ds, err := printSel.dataset(ctx, a)
		if err != nil {
			return err
		}
		plan := report.Layout(ds, flagLimit)

		if flagXLSX == "" {
			fmt.Fprintln(cmd.OutOrStdout(), term.Render(report.Render(plan, a.formatter)))
			return nil
		}

		f, err := os.Create(flagXLSX)
		if err != nil {
			return err
		}
		if err := xlsx.Write(f, plan, a.formatter); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", flagXLSX)
		return nil
	})
}
