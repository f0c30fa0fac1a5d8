package api

import (
	"net/http"

	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
)

// PlayersHandler serves roster and rolling-average routes.
type PlayersHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPlayersHandler creates a players handler.
func NewPlayersHandler(deps Dependencies, log logger.Logger) *PlayersHandler {
	return &PlayersHandler{deps: deps, log: log}
}

type playerRequest struct {
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
}

// HandlePutPlayer handles PUT /players/{id}.
func (h *PlayersHandler) HandlePutPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_player"
	var req playerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	p := model.Player{ID: r.PathValue("id"), Name: req.Name, TeamID: req.TeamID}
	if err := h.deps.SavePlayer(r.Context(), p); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetRolling handles
// GET /players/{id}/rolling?window=&round_type=&from=&to=&model=.
func (h *PlayersHandler) HandleGetRolling(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rolling"
	q := r.URL.Query()

	window, err := parseInt("window", q.Get("window"))
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	query := service.RollingQuery{PlayerID: r.PathValue("id"), Window: window, Model: q.Get("model")}
	if rt := q.Get("round_type"); rt != "" {
		if query.RoundType, err = types.ParseRoundType(rt); err != nil {
			writeError(r.Context(), h.log, w, op, err)
			return
		}
	}
	if query.From, err = parseDate("from", q.Get("from")); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	if query.To, err = parseDate("to", q.Get("to")); err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}

	avg, err := h.deps.Rolling(r.Context(), query)
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, avg)
}
