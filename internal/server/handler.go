package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
	"position-ledger/internal/resilience"
	"position-ledger/internal/trading"
)

// Ledger is what the handlers need from the trading engine.
type Ledger interface {
	Apply(ctx context.Context, raw models.RawTransaction) (trading.Outcome, error)
	Check(ctx context.Context, raw models.RawTransaction) (models.Transaction, bool, error)
	Position(ctx context.Context, ticker string) (*models.Position, error)
	Positions(ctx context.Context) ([]models.Position, error)
	Ping(ctx context.Context) error
}

// Handler serves the transaction and position endpoints.
type Handler struct {
	ledger Ledger
	health *resilience.HealthChecker
}

// NewHandler creates a Handler. The ledger's store is registered as a
// health component.
func NewHandler(ledger Ledger) *Handler {
	health := resilience.NewHealthChecker(resilience.DefaultHealthConfig())
	health.RegisterComponent("store", resilience.StoreHealthCheck(ledger.Ping, 100*time.Millisecond))
	return &Handler{ledger: ledger, health: health}
}

// Health reports component health; 503 when any component is unhealthy.
func (h *Handler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := h.health.Check(c.Request.Context())
		if health.Status == resilience.HealthStatusUnhealthy {
			JSON(c, http.StatusServiceUnavailable, CodeUnavailable, "unhealthy", health)
			return
		}
		Success(c, health)
	}
}

// CheckResult is the body of a feasibility check.
type CheckResult struct {
	Feasible    bool               `json:"feasible"`
	Transaction models.Transaction `json:"transaction"`
}

// ValidateTransaction returns the canonical form of the posted transaction.
func (h *Handler) ValidateTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw models.RawTransaction
		if err := c.ShouldBindJSON(&raw); err != nil {
			BadRequest(c, err)
			return
		}
		tx, err := trading.Validate(raw)
		if err != nil {
			Error(c, err)
			return
		}
		Success(c, tx)
	}
}

// CheckTransaction reports whether the posted transaction could be applied
// now. An infeasible transaction is still a successful check.
func (h *Handler) CheckTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw models.RawTransaction
		if err := c.ShouldBindJSON(&raw); err != nil {
			BadRequest(c, err)
			return
		}
		tx, feasible, err := h.ledger.Check(c.Request.Context(), raw)
		if err != nil {
			Error(c, err)
			return
		}
		Success(c, CheckResult{Feasible: feasible, Transaction: tx})
	}
}

// PostTransaction validates, checks and applies the posted transaction.
func (h *Handler) PostTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw models.RawTransaction
		if err := c.ShouldBindJSON(&raw); err != nil {
			BadRequest(c, err)
			return
		}
		outcome, err := h.ledger.Apply(c.Request.Context(), raw)
		if err != nil {
			Error(c, err)
			return
		}

		switch outcome.Kind {
		case trading.OutcomeInfeasible:
			JSON(c, http.StatusConflict, CodeInfeasible, outcome.Err().Error(), outcome)
		case trading.OutcomeRejected:
			JSON(c, http.StatusUnprocessableEntity, CodeRejected, outcome.Err().Error(), outcome)
		case trading.OutcomeCreated:
			JSON(c, http.StatusCreated, CodeSuccess, "position created", outcome)
		case trading.OutcomeClosed:
			JSON(c, http.StatusOK, CodeSuccess, "position closed", outcome)
		default:
			JSON(c, http.StatusOK, CodeSuccess, "position updated", outcome)
		}
	}
}

// ListPositions returns every open position.
func (h *Handler) ListPositions() gin.HandlerFunc {
	return func(c *gin.Context) {
		positions, err := h.ledger.Positions(c.Request.Context())
		if err != nil {
			Error(c, err)
			return
		}
		Success(c, positions)
	}
}

// GetPosition returns the position of the :ticker path parameter.
func (h *Handler) GetPosition() gin.HandlerFunc {
	return func(c *gin.Context) {
		ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
		pos, err := h.ledger.Position(c.Request.Context(), ticker)
		if err != nil {
			Error(c, err)
			return
		}
		if pos == nil {
			Error(c, lerrors.Wrapf(lerrors.ErrPositionNotFound, "no position for %s", ticker))
			return
		}
		Success(c, pos)
	}
}
