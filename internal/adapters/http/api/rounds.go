package api

import (
	"fmt"
	"net/http"

	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
)

// RoundsHandler serves round, shot and scorecard routes.
type RoundsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewRoundsHandler creates a rounds handler.
func NewRoundsHandler(deps Dependencies, log logger.Logger) *RoundsHandler {
	return &RoundsHandler{deps: deps, log: log}
}

// shotsRequest mirrors the OpenAPI schema for PUT /rounds/{id}/shots.
type shotsRequest struct {
	SubmissionID string          `json:"submission_id"`
	Model        string          `json:"model"`
	Shots        []model.RawShot `json:"shots"`
}

// HandlePutShots handles PUT /rounds/{id}/shots. The holes present in the
// body replace what was stored for them; other holes are untouched.
func (h *RoundsHandler) HandlePutShots(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_shots"
	var req shotsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	if req.Model == "" {
		req.Model = r.URL.Query().Get("model")
	}
	res, err := h.deps.SubmitShots(r.Context(), service.Submission{
		RoundID:      r.PathValue("id"),
		SubmissionID: req.SubmissionID,
		Model:        req.Model,
		Shots:        req.Shots,
	})
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetStrokesGained handles GET /rounds/{id}/strokes-gained?model=.
func (h *RoundsHandler) HandleGetStrokesGained(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_strokes_gained"
	rep, err := h.deps.RoundStrokesGained(r.Context(), r.PathValue("id"), r.URL.Query().Get("model"))
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// roundRequest mirrors the OpenAPI schema for PUT /rounds/{id}.
type roundRequest struct {
	PlayerID  string `json:"player_id"`
	TeamID    string `json:"team_id"`
	Course    string `json:"course"`
	RoundType string `json:"round_type"`
	PlayedOn  string `json:"played_on"`
	Par       int    `json:"par"`
	Strokes   int    `json:"strokes"`
}

// HandlePutRound handles PUT /rounds/{id}.
func (h *RoundsHandler) HandlePutRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_round"
	var req roundRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	rt, err := types.ParseRoundType(req.RoundType)
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	played, err := parseDate("played_on", req.PlayedOn)
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	if req.Par < 0 || req.Strokes < 0 {
		writeError(r.Context(), h.log, w, op, fmt.Errorf("%w: par and strokes must not be negative", ErrBadRequest))
		return
	}

	round, err := h.deps.SaveRound(r.Context(), model.Round{
		ID:        r.PathValue("id"),
		PlayerID:  req.PlayerID,
		TeamID:    req.TeamID,
		Course:    req.Course,
		RoundType: rt,
		PlayedOn:  played,
		Par:       req.Par,
		Strokes:   req.Strokes,
	})
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

type scoresRequest struct {
	Scores []model.HoleScore `json:"scores"`
}

// HandlePutScores handles PUT /rounds/{id}/scores.
func (h *RoundsHandler) HandlePutScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_scores"
	var req scoresRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	if err := h.deps.SaveHoleScores(r.Context(), r.PathValue("id"), req.Scores); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
