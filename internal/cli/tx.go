package cli

import (
	"time"

	"github.com/spf13/cobra"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
	"position-ledger/internal/trading"
)

// addTransactionCommands adds the single-transaction commands.
func addTransactionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Validate, check and apply single transactions",
		Long: `Enter one BUY, SELL or DIV transaction.

Quantities may be given with any sign; the sign is taken from the type.
Omitted numeric flags are treated as absent, not as zero.`,
	}

	cmd.AddCommand(newTxValidateCmd())
	cmd.AddCommand(newTxCheckCmd(app))
	cmd.AddCommand(newTxAddCmd(app))

	rootCmd.AddCommand(cmd)
}

func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", "", "order type: BUY, SELL or DIV")
	cmd.Flags().StringP("ticker", "s", "", "ticker symbol")
	cmd.Flags().StringP("quantity", "q", "", "number of shares")
	cmd.Flags().StringP("price", "p", "", "price per share")
	cmd.Flags().String("fees", "", "transaction fees")
	cmd.Flags().String("dividend", "", "dividend amount (DIV only)")
	cmd.Flags().String("date", "", "transaction date (default: today)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("ticker")
}

// rawFromFlags builds a raw transaction. Numeric flags that were not given
// stay nil; a missing date is today's.
func rawFromFlags(cmd *cobra.Command) models.RawTransaction {
	orderType, _ := cmd.Flags().GetString("type")
	ticker, _ := cmd.Flags().GetString("ticker")
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	raw := models.RawTransaction{Date: date, Ticker: ticker, OrderType: orderType}

	numeric := func(name string) any {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	raw.Quantity = numeric("quantity")
	raw.Price = numeric("price")
	raw.Fees = numeric("fees")
	raw.Dividend = numeric("dividend")
	return raw
}

func newTxValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a transaction without touching the ledger",
		Example: `  ledger tx validate --type SELL --ticker ALTR --quantity 170 --price 4.72 --fees 5.03
  ledger tx validate --type DIV --ticker ALTR --dividend 8.10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tx, err := trading.Validate(rawFromFlags(cmd))
			if err != nil {
				return reportValidation(output, err)
			}
			if output.IsJSON() {
				return output.JSON(tx)
			}
			output.Success("✓ Transaction is valid")
			printTransaction(output, tx)
			return nil
		},
	}
	addTransactionFlags(cmd)
	return cmd
}

func newTxCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a transaction could be applied now",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			engine, err := app.Ledger()
			if err != nil {
				return err
			}

			tx, feasible, err := engine.Check(cmd.Context(), rawFromFlags(cmd))
			if err != nil {
				return reportValidation(output, err)
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"feasible":    feasible,
					"transaction": tx,
				})
			}
			if feasible {
				output.Success("✓ Transaction is feasible")
			} else {
				output.Warning("✗ Transaction is not feasible with current holdings")
			}
			printTransaction(output, tx)
			return nil
		},
	}
	addTransactionFlags(cmd)
	return cmd
}

func newTxAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Apply a transaction to the ledger",
		Example: `  ledger tx add --type BUY --ticker ALTR --quantity 100 --price 3.6181 --fees 5
  ledger tx add --type SELL --ticker ALTR --quantity 40 --price 4.10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			engine, err := app.Ledger()
			if err != nil {
				return err
			}

			outcome, err := engine.Apply(cmd.Context(), rawFromFlags(cmd))
			if err != nil {
				return reportValidation(output, err)
			}
			if output.IsJSON() {
				if err := output.JSON(outcome); err != nil {
					return err
				}
				return outcome.Err()
			}
			return printOutcome(output, outcome, app.Config.Display.Currency)
		},
	}
	addTransactionFlags(cmd)
	return cmd
}

// reportValidation prints each validation reason before returning err.
func reportValidation(output *Output, err error) error {
	var verr *lerrors.ValidationError
	if !lerrors.As(err, &verr) {
		return err
	}
	if output.IsJSON() {
		if jerr := output.JSON(verr.Report()); jerr != nil {
			return jerr
		}
		return err
	}
	output.Error("✗ Transaction is invalid")
	for _, reason := range verr.Reasons() {
		output.Printf("  - %s\n", reason)
	}
	return err
}

func printTransaction(output *Output, tx models.Transaction) {
	if tx.Date != "" {
		output.Printf("  Date:      %s\n", tx.Date)
	}
	output.Printf("  Ticker:    %s\n", tx.Ticker)
	output.Printf("  Type:      %s\n", tx.OrderType)
	output.Printf("  Quantity:  %s\n", tx.Quantity.String())
	output.Printf("  Price:     %s\n", FormatPrice(tx.Price))
	output.Printf("  Fees:      %s\n", tx.Fees.String())
	if tx.OrderType == models.OrderTypeDividend {
		output.Printf("  Dividend:  %s\n", tx.Dividend.String())
	}
}

func printOutcome(output *Output, outcome trading.Outcome, currency string) error {
	switch outcome.Kind {
	case trading.OutcomeInfeasible, trading.OutcomeRejected:
		output.Error("✗ %s", outcome.Err())
		return outcome.Err()
	case trading.OutcomeClosed:
		output.Success("✓ Position %s closed", outcome.Transaction.Ticker)
		return nil
	case trading.OutcomeCreated:
		output.Success("✓ Position %s created", outcome.Transaction.Ticker)
	default:
		output.Success("✓ Position %s updated", outcome.Transaction.Ticker)
	}
	if outcome.Position != nil {
		printPositions(output, []models.Position{*outcome.Position}, currency)
	}
	return nil
}
