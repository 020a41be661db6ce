package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
	"position-ledger/pkg/utils"
)

// addPositionCommands adds the position listing command.
func addPositionCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "positions [TICKER]",
		Aliases: []string{"pos"},
		Short:   "Show open positions",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			engine, err := app.Ledger()
			if err != nil {
				return err
			}

			var positions []models.Position
			if len(args) == 1 {
				ticker := strings.ToUpper(strings.TrimSpace(args[0]))
				pos, err := engine.Position(cmd.Context(), ticker)
				if err != nil {
					return err
				}
				if pos == nil {
					return lerrors.Wrapf(lerrors.ErrPositionNotFound, "no position for %s", ticker)
				}
				positions = []models.Position{*pos}
			} else {
				positions, err = engine.Positions(cmd.Context())
				if err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Dim("No open positions")
				return nil
			}
			printPositions(output, positions, app.Config.Display.Currency)
			return nil
		},
	})
}

func printPositions(output *Output, positions []models.Position, currency string) {
	t := output.NewTable([]string{"Ticker", "Quantity", "Avg Price", "Cost Basis", "Dividends", "Updated"}, 2, 3, 4, 5)
	for _, p := range positions {
		t.AppendRow(table.Row{
			p.Ticker,
			utils.FormatQuantity(p.Quantity),
			FormatPrice(p.AvgPrice),
			FormatCostBasis(p, currency),
			FormatDividend(p.HistDividend, currency),
			FormatDateTime(p.UpdatedAt),
		})
	}
	if len(positions) > 1 {
		t.AppendFooter(table.Row{"", "", "", "", "", len(positions)})
	}
	t.Render()
}
