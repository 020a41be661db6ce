package importer

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/logging"
	"position-ledger/internal/models"
	"position-ledger/internal/monitoring"
	"position-ledger/internal/trading"
)

// Status is the result of one imported row.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusValid      Status = "valid"
	StatusSkipped    Status = "skipped"
	StatusInvalid    Status = "invalid"
	StatusInfeasible Status = "infeasible"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// Applier applies raw transactions. *trading.Engine implements it.
type Applier interface {
	Apply(ctx context.Context, raw models.RawTransaction) (trading.Outcome, error)
}

// RowResult is the per-row entry of a Report.
type RowResult struct {
	Imported Imported         `json:"imported"`
	Status   Status           `json:"status"`
	Outcome  *trading.Outcome `json:"outcome,omitempty"`
	Error    string           `json:"error,omitempty"`
	err      error
}

// Err returns the row error, if any.
func (r RowResult) Err() error { return r.err }

// Report summarizes a batch import.
type Report struct {
	Rows   []RowResult    `json:"rows"`
	Counts map[Status]int `json:"counts"`
	DryRun bool           `json:"dryRun"`
}

// Failed reports whether any row ended invalid, rejected or failed.
func (r Report) Failed() bool {
	return r.Counts[StatusInvalid]+r.Counts[StatusRejected]+r.Counts[StatusFailed] > 0
}

// Importer normalizes export rows and applies them one at a time.
type Importer struct {
	applier Applier
	tickers TickerLookup
	logger  zerolog.Logger
}

// NewImporter creates an Importer. A nil tickers uses DefaultTickers.
func NewImporter(applier Applier, tickers TickerLookup, logger zerolog.Logger) *Importer {
	if tickers == nil {
		tickers = DefaultTickers
	}
	return &Importer{
		applier: applier,
		tickers: tickers,
		logger:  logging.WithOperation(logger, "import"),
	}
}

// ImportFile reads path and imports its rows.
func (im *Importer) ImportFile(ctx context.Context, path string, dryRun bool) (Report, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	im.logger.Info().Str("path", path).Int("rows", len(rows)).Bool("dry_run", dryRun).Msg("Importing transactions")
	return im.Import(ctx, rows, dryRun)
}

// Import normalizes rows and applies them oldest first. A failing row never
// stops the batch; only a cancelled context does. With dryRun set rows are
// validated but not applied.
func (im *Importer) Import(ctx context.Context, rows []Row, dryRun bool) (Report, error) {
	report := Report{
		Rows:   make([]RowResult, 0, len(rows)),
		Counts: make(map[Status]int),
		DryRun: dryRun,
	}

	imported := NormalizeAll(rows, im.tickers)
	chronological(imported)

	for _, imp := range imported {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := im.importRow(ctx, imp, dryRun)
		if result.err != nil {
			result.Error = result.err.Error()
		}
		report.Rows = append(report.Rows, result)
		report.Counts[result.Status]++

		monitoring.RecordImportRow(string(result.Status))
		logging.LogImportRow(im.logger, imp.Row, imp.Product, imp.Ticker, string(result.Status), result.err)
	}

	im.logger.Info().
		Int("applied", report.Counts[StatusApplied]).
		Int("skipped", report.Counts[StatusSkipped]).
		Int("invalid", report.Counts[StatusInvalid]).
		Int("infeasible", report.Counts[StatusInfeasible]).
		Int("rejected", report.Counts[StatusRejected]).
		Int("failed", report.Counts[StatusFailed]).
		Msg("Import finished")
	return report, nil
}

func (im *Importer) importRow(ctx context.Context, imp Imported, dryRun bool) RowResult {
	result := RowResult{Imported: imp}

	if !imp.Resolved() {
		result.Status = StatusSkipped
		if len(imp.Invalid) > 0 {
			result.Status = StatusInvalid
			result.err = lerrors.NewImportError(imp.Row, lerrors.Wrapf(lerrors.ErrInputValidation, "unparseable %v", imp.Invalid))
		}
		return result
	}

	if dryRun {
		if _, err := trading.Validate(imp.Raw()); err != nil {
			result.Status = StatusInvalid
			result.err = lerrors.NewImportError(imp.Row, err)
			return result
		}
		result.Status = StatusValid
		return result
	}

	outcome, err := im.applier.Apply(ctx, imp.Raw())
	switch {
	case lerrors.Is(err, lerrors.ErrInputValidation):
		result.Status = StatusInvalid
		result.err = lerrors.NewImportError(imp.Row, err)
		return result
	case err != nil:
		result.Status = StatusFailed
		result.err = lerrors.NewImportError(imp.Row, err)
		return result
	}

	result.Outcome = &outcome
	switch outcome.Kind {
	case trading.OutcomeInfeasible:
		result.Status = StatusInfeasible
	case trading.OutcomeRejected:
		result.Status = StatusRejected
		result.err = lerrors.NewImportError(imp.Row, outcome.Err())
	default:
		result.Status = StatusApplied
	}
	return result
}

// exportDateLayout is the Data@Hora format of the broker export.
const exportDateLayout = "02-01-2006@15:04"

// chronological sorts rows by date, keeping file order for equal dates.
// Exports list the newest row first. If any date does not parse the order
// is left alone.
func chronological(rows []Imported) {
	times := make(map[int]time.Time, len(rows))
	for _, r := range rows {
		t, err := time.Parse(exportDateLayout, r.Date)
		if err != nil {
			return
		}
		times[r.Row] = t
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return times[rows[i].Row].Before(times[rows[j].Row])
	})
}
