package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/sgengine/internal/adapters/repository"
	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/shots"
	"github.com/okian/sgengine/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadBody    = errors.New("malformed request body")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hole    *int   `json:"hole,omitempty"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, errorResponse) {
	resp := errorResponse{Message: err.Error()}

	var ve *shots.ValidationError
	if errors.As(err, &ve) {
		resp.Code = "validation_failed"
		resp.Field = ve.Field
		if ve.Hole > 0 {
			hole := ve.Hole
			resp.Hole = &hole
		}
		index := ve.Index
		resp.Index = &index
		return http.StatusUnprocessableEntity, resp
	}

	switch {
	case errors.Is(err, baseline.ErrModelNotFound):
		resp.Code = "model_not_found"
		return http.StatusNotFound, resp
	case errors.Is(err, repository.ErrNotFound):
		resp.Code = "not_found"
		return http.StatusNotFound, resp
	case errors.Is(err, baseline.ErrIncompleteModel):
		resp.Code = "incomplete_model"
		return http.StatusConflict, resp
	case errors.Is(err, repository.ErrDataUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		resp.Code = "data_unavailable"
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrBadBody),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, leaderboard.ErrInvalidQuery),
		errors.Is(err, leaderboard.ErrUnknownScope),
		errors.Is(err, types.ErrUnknownRoundType),
		errors.Is(err, types.ErrUnknownLie),
		errors.Is(err, baseline.ErrInvalidCurve),
		errors.Is(err, baseline.ErrInvalidParams),
		errors.Is(err, baseline.ErrUnknownKind),
		errors.Is(err, repository.ErrInvalidRecord):
		resp.Code = "bad_request"
		return http.StatusBadRequest, resp
	}
	resp.Code = "internal_error"
	resp.Message = http.StatusText(http.StatusInternalServerError)
	return http.StatusInternalServerError, resp
}
