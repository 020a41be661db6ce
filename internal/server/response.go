package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	lerrors "position-ledger/internal/errors"
)

// Response codes carried in the envelope. Zero means success.
const (
	CodeSuccess     = 0
	CodeBadRequest  = 1000
	CodeValidation  = 1001
	CodeInfeasible  = 1002
	CodeRejected    = 1003
	CodeNotFound    = 1004
	CodeStore       = 1500
	CodeUnavailable = 1501
)

// ApiResponse is the envelope of every JSON response.
type ApiResponse struct {
	RequestID string      `json:"request_id"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

// JSON writes an envelope with the given status.
func JSON(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, ApiResponse{
		RequestID: c.GetString(RequestIDKey),
		Code:      code,
		Message:   message,
		Data:      data,
	})
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, CodeSuccess, "ok", data)
}

// FieldReport is the per-field body of a validation failure.
type FieldReport struct {
	Reasons map[lerrors.Reason]bool `json:"reasons"`
	Fields  []*lerrors.FieldError   `json:"fields"`
}

// Error maps err onto a status and code. Validation failures carry their
// per-field report as data.
func Error(c *gin.Context, err error) {
	var verr *lerrors.ValidationError
	switch {
	case lerrors.As(err, &verr):
		JSON(c, http.StatusBadRequest, CodeValidation, "invalid transaction", FieldReport{
			Reasons: verr.Report(),
			Fields:  verr.Fields(),
		})
	case lerrors.Is(err, lerrors.ErrInfeasible):
		JSON(c, http.StatusConflict, CodeInfeasible, err.Error(), nil)
	case lerrors.Is(err, lerrors.ErrNegativeValue):
		JSON(c, http.StatusUnprocessableEntity, CodeRejected, err.Error(), nil)
	case lerrors.Is(err, lerrors.ErrPositionNotFound):
		JSON(c, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case lerrors.Is(err, lerrors.ErrStoreUnavailable):
		JSON(c, http.StatusInternalServerError, CodeStore, "store unavailable", nil)
	default:
		JSON(c, http.StatusInternalServerError, CodeUnavailable, "internal error", nil)
	}
}

// BadRequest writes a 400 for a body that could not be decoded.
func BadRequest(c *gin.Context, err error) {
	JSON(c, http.StatusBadRequest, CodeBadRequest, "malformed request body: "+err.Error(), nil)
}
