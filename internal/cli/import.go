package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/importer"
)

// addImportCommands adds the broker export import command.
func addImportCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Import transactions from a broker export",
		Long: `Import a broker account export.

Rows are converted to transactions, sorted oldest first and applied one at a
time. Products without a known ticker are skipped; add them under
[[import.tickers]] in the configuration. A failed row does not stop the
import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			verbose, _ := cmd.Flags().GetBool("verbose")

			engine, err := app.Ledger()
			if err != nil {
				return err
			}
			tickers := importer.DefaultTickers.Merge(app.Config.Import.TickerTable())
			im := importer.NewImporter(engine, tickers, app.Logger)

			report, err := im.ImportFile(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				printImportReport(output, report, verbose)
			}

			if report.Failed() {
				return lerrors.Wrapf(lerrors.ErrInputValidation, "%d of %d rows were not imported",
					report.Counts[importer.StatusInvalid]+report.Counts[importer.StatusRejected]+report.Counts[importer.StatusFailed],
					len(report.Rows))
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "validate rows without applying them")
	cmd.Flags().BoolP("verbose", "v", false, "list every row, not only problems")
	rootCmd.AddCommand(cmd)
}

func printImportReport(output *Output, report importer.Report, verbose bool) {
	t := output.NewTable([]string{"Row", "Date", "Product", "Ticker", "Type", "Quantity", "Status", "Detail"}, 1, 6)
	shown := 0
	for _, r := range report.Rows {
		if !verbose && r.Status != importer.StatusInvalid && r.Status != importer.StatusRejected &&
			r.Status != importer.StatusFailed && r.Status != importer.StatusInfeasible {
			continue
		}
		imp := r.Imported
		detail := r.Error
		if detail == "" && r.Outcome != nil {
			detail = string(r.Outcome.Kind)
		}
		t.AppendRow(table.Row{
			imp.Row,
			imp.Date,
			TruncateString(imp.Product, 24),
			imp.Ticker,
			string(imp.OrderType),
			imp.Quantity.String(),
			string(r.Status),
			TruncateString(detail, 48),
		})
		shown++
	}
	if shown > 0 {
		t.Render()
		output.Println()
	}

	title := "Import finished"
	if report.DryRun {
		title = "Dry run finished"
	}
	summary := fmt.Sprintf("%s: %d rows", title, len(report.Rows))
	for _, s := range []importer.Status{
		importer.StatusApplied, importer.StatusValid, importer.StatusSkipped, importer.StatusInfeasible,
		importer.StatusInvalid, importer.StatusRejected, importer.StatusFailed,
	} {
		if n := report.Counts[s]; n > 0 {
			summary += fmt.Sprintf(", %d %s", n, s)
		}
	}
	if report.Failed() {
		output.Warning("%s", summary)
	} else {
		output.Success("%s", summary)
	}
}
