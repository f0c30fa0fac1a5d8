package api

import (
	"fmt"
	"net/http"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
)

// BaselinesHandler serves baseline model administration.
type BaselinesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewBaselinesHandler creates a baselines handler.
func NewBaselinesHandler(deps Dependencies, log logger.Logger) *BaselinesHandler {
	return &BaselinesHandler{deps: deps, log: log}
}

type pointRequest struct {
	Lie      string  `json:"lie"`
	Distance float64 `json:"distance"`
	Expected float64 `json:"expected"`
}

type curveRequest struct {
	Points []pointRequest `json:"points"`
}

type curveResponse struct {
	Model  string        `json:"model"`
	Kind   baseline.Kind `json:"kind"`
	Points int           `json:"points"`
}

// HandleListModels handles GET /baselines.
func (h *BaselinesHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.deps.Models(r.Context())
	if err != nil {
		writeError(r.Context(), h.log, w, "api.list_models", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}

// HandlePutCurve handles PUT /baselines/{model}/{kind}, replacing the whole
// curve. Putting points take no lie; off-green points name one.
func (h *BaselinesHandler) HandlePutCurve(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_curve"
	kind, err := baseline.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	var req curveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}

	points := make([]baseline.Point, 0, len(req.Points))
	for i, p := range req.Points {
		pt := baseline.Point{Distance: p.Distance, Expected: p.Expected}
		if p.Lie != "" {
			lie, err := types.ParseLie(p.Lie)
			if err != nil {
				writeError(r.Context(), h.log, w, op, fmt.Errorf("points[%d]: %w", i, err))
				return
			}
			pt.Lie = lie
		}
		points = append(points, pt)
	}

	modelName := r.PathValue("model")
	if err := h.deps.ReplaceCurve(r.Context(), modelName, kind, points); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, curveResponse{Model: modelName, Kind: kind, Points: len(points)})
}

type paramsRequest struct {
	ShortGameYards float64 `json:"short_game_yards"`
	ProxyLie       string  `json:"proxy_lie"`
}

// HandlePutParams handles PUT /baselines/{model}.
func (h *BaselinesHandler) HandlePutParams(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_params"
	var req paramsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	p := baseline.Params{ShortGameYards: req.ShortGameYards, ProxyLie: baseline.DefaultProxyLie}
	if req.ProxyLie != "" {
		lie, err := types.ParseLie(req.ProxyLie)
		if err != nil {
			writeError(r.Context(), h.log, w, op, err)
			return
		}
		p.ProxyLie = lie
	}
	if err := h.deps.SetParams(r.Context(), r.PathValue("model"), p); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
