package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/logging"
	"position-ledger/internal/models"
	"position-ledger/internal/monitoring"
	"position-ledger/internal/store"
)

// OutcomeKind is the terminal state of one applied transaction.
type OutcomeKind string

const (
	OutcomeCreated    OutcomeKind = "CREATED"
	OutcomeUpdated    OutcomeKind = "UPDATED"
	OutcomeClosed     OutcomeKind = "CLOSED"
	OutcomeInfeasible OutcomeKind = "INFEASIBLE"
	OutcomeRejected   OutcomeKind = "REJECTED"
)

// Outcome describes what Apply did. Position holds the stored position after
// Created or Updated; Previous holds the position read before the fold.
type Outcome struct {
	Kind        OutcomeKind        `json:"outcome"`
	Transaction models.Transaction `json:"transaction"`
	Position    *models.Position   `json:"position,omitempty"`
	Previous    *models.Position   `json:"previous,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

// Err converts infeasible and rejected outcomes into errors for callers that
// prefer them; other outcomes return nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeInfeasible:
		return lerrors.Wrapf(lerrors.ErrInfeasible, "%s %s %s", o.Transaction.OrderType, o.Transaction.Quantity, o.Transaction.Ticker)
	case OutcomeRejected:
		return lerrors.NewRejectionError(o.Transaction.Ticker, o.Reason)
	}
	return nil
}

// Engine applies transactions to a PositionStore. Reading the current
// position, checking feasibility, recalculating and writing the result run
// under one per-ticker lock, so concurrent Apply calls for the same ticker
// never lose an update. Different tickers proceed in parallel.
type Engine struct {
	store  store.PositionStore
	locks  *tickerLocks
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine writing to s.
func NewEngine(s store.PositionStore, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  s,
		locks:  newTickerLocks(),
		logger: logging.WithOperation(logger, "engine"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Apply validates raw and applies it. Validation failures are returned as
// *errors.ValidationError and store failures as *errors.StoreError; every
// other result, including infeasible and rejected transactions, is an Outcome.
func (e *Engine) Apply(ctx context.Context, raw models.RawTransaction) (Outcome, error) {
	tx, err := Validate(raw)
	if err != nil {
		var verr *lerrors.ValidationError
		if lerrors.As(err, &verr) {
			for _, r := range verr.Reasons() {
				monitoring.RecordValidationFailure(string(r))
			}
		}
		logger := e.loggerFor(ctx)
		logger.Debug().Err(err).Interface("ticker", raw.Ticker).Msg("Transaction rejected by validation")
		return Outcome{}, err
	}
	return e.ApplyTransaction(ctx, tx)
}

// ApplyTransaction applies an already validated transaction.
func (e *Engine) ApplyTransaction(ctx context.Context, tx models.Transaction) (Outcome, error) {
	start := time.Now()
	defer func() { monitoring.ObserveApply(time.Since(start)) }()

	logger := logging.WithTicker(e.loggerFor(ctx), tx.Ticker)

	unlock := e.locks.Lock(tx.Ticker)
	defer unlock()

	existing, err := e.get(ctx, logger, tx.Ticker)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Transaction: tx, Previous: existing}

	feasible, err := CheckFeasible(ctx, tx.Ticker, tx.OrderType, tx.Quantity, snapshot(existing))
	if err != nil {
		return Outcome{}, err
	}
	if !feasible {
		outcome.Kind = OutcomeInfeasible
		outcome.Reason = lerrors.ErrInfeasible.Error()
		e.record(logger, outcome)
		return outcome, nil
	}

	result := Recalculate(existing, tx)
	switch result.Kind {
	case RecalcCreated, RecalcUpdated:
		pos := result.Position
		pos.UpdatedAt = e.now()
		if err := e.put(ctx, logger, pos); err != nil {
			return Outcome{}, err
		}
		outcome.Position = &pos
		outcome.Kind = OutcomeUpdated
		if result.Kind == RecalcCreated {
			outcome.Kind = OutcomeCreated
		}
	case RecalcClosed:
		if err := e.delete(ctx, logger, tx.Ticker); err != nil {
			return Outcome{}, err
		}
		outcome.Kind = OutcomeClosed
	default:
		outcome.Kind = OutcomeRejected
		outcome.Reason = result.Reason
	}

	e.record(logger, outcome)
	return outcome, nil
}

// Check validates raw and reports whether it is feasible right now, without
// applying it.
func (e *Engine) Check(ctx context.Context, raw models.RawTransaction) (models.Transaction, bool, error) {
	tx, err := Validate(raw)
	if err != nil {
		return models.Transaction{}, false, err
	}
	feasible, err := CheckFeasible(ctx, tx.Ticker, tx.OrderType, tx.Quantity, storeLookup{e})
	if err != nil {
		return tx, false, err
	}
	return tx, feasible, nil
}

// Position returns the stored position of ticker, or nil.
func (e *Engine) Position(ctx context.Context, ticker string) (*models.Position, error) {
	return e.get(ctx, e.logger, ticker)
}

// Positions returns every stored position.
func (e *Engine) Positions(ctx context.Context) ([]models.Position, error) {
	start := time.Now()
	positions, err := e.store.List(ctx)
	logging.LogStoreCall(e.logger, "list", "", time.Since(start), err)
	if err != nil {
		monitoring.RecordStoreError("list")
		return nil, asStoreError("list", "", err)
	}
	return positions, nil
}

// loggerFor tags the engine logger with the request id carried by ctx.
func (e *Engine) loggerFor(ctx context.Context) zerolog.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return e.logger.With().Str("request_id", id).Logger()
	}
	return e.logger
}

// Ping reports whether the store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return asStoreError("ping", "", err)
	}
	return nil
}

func (e *Engine) record(logger zerolog.Logger, o Outcome) {
	monitoring.RecordOutcome(string(o.Transaction.OrderType), string(o.Kind))

	switch o.Kind {
	case OutcomeInfeasible, OutcomeRejected:
		logger.Warn().
			Str("order_type", string(o.Transaction.OrderType)).
			Str("quantity", o.Transaction.Quantity.String()).
			Str("outcome", string(o.Kind)).
			Str("reason", o.Reason).
			Msg("Transaction not applied")
		return
	}

	logging.LogTransaction(logger, o.Transaction.Ticker, string(o.Transaction.OrderType),
		o.Transaction.Quantity.String(), o.Transaction.Price.String(), o.Transaction.Dividend.String())
	if o.Position != nil {
		logging.LogPositionChange(logger, o.Position.Ticker, string(o.Kind),
			o.Position.Quantity.String(), o.Position.AvgPrice.String(), o.Position.HistDividend.String())
	} else {
		logging.LogPositionChange(logger, o.Transaction.Ticker, string(o.Kind), "0", "", "")
	}
}

func (e *Engine) get(ctx context.Context, logger zerolog.Logger, ticker string) (*models.Position, error) {
	start := time.Now()
	pos, err := e.store.Get(ctx, ticker)
	logging.LogStoreCall(logger, "get", ticker, time.Since(start), err)
	if err != nil {
		monitoring.RecordStoreError("get")
		return nil, asStoreError("get", ticker, err)
	}
	return pos, nil
}

func (e *Engine) put(ctx context.Context, logger zerolog.Logger, pos models.Position) error {
	start := time.Now()
	err := e.store.Put(ctx, pos)
	logging.LogStoreCall(logger, "put", pos.Ticker, time.Since(start), err)
	if err != nil {
		monitoring.RecordStoreError("put")
		return asStoreError("put", pos.Ticker, err)
	}
	return nil
}

func (e *Engine) delete(ctx context.Context, logger zerolog.Logger, ticker string) error {
	start := time.Now()
	err := e.store.Delete(ctx, ticker)
	logging.LogStoreCall(logger, "delete", ticker, time.Since(start), err)
	if err != nil {
		monitoring.RecordStoreError("delete")
		return asStoreError("delete", ticker, err)
	}
	return nil
}

// asStoreError makes sure store failures match ErrStoreUnavailable whatever
// the store implementation returned.
func asStoreError(op, ticker string, err error) error {
	if lerrors.Is(err, lerrors.ErrStoreUnavailable) {
		return err
	}
	return lerrors.NewStoreError(op, ticker, err)
}

// storeLookup reads through the engine so lookups are logged and counted.
type storeLookup struct{ e *Engine }

func (l storeLookup) Get(ctx context.Context, ticker string) (*models.Position, error) {
	return l.e.get(ctx, l.e.logger, ticker)
}
