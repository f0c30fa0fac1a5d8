package api

import (
	"net/http"

	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, log: log}
}

type leaderboardResponse struct {
	Scope     leaderboard.Scope `json:"scope"`
	RoundType types.RoundType   `json:"round_type,omitempty"`
	Model     string            `json:"model,omitempty"`
	Rows      []leaderboard.Row `json:"rows"`
}

// HandleGetLeaderboard handles
// GET /leaderboard?scope=team|all&round_type=&from=&to=&model=.
// The acting user for team scope comes from the X-User-ID header.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	scope, err := leaderboard.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	query := leaderboard.Query{Scope: scope, Model: q.Get("model")}
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

	rows, err := h.deps.Leaderboard(r.Context(), r.Header.Get(UserHeader), query)
	if err != nil {
		writeError(r.Context(), h.log, w, op, err)
		return
	}
	if rows == nil {
		rows = []leaderboard.Row{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Scope: scope, RoundType: query.RoundType, Model: query.Model, Rows: rows})
}
