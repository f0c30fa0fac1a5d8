// Package api exposes the strokes-gained engine over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/aggregate"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/pkg/logger"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
	// UserHeader carries the acting user for team-scoped leaderboards.
	UserHeader = "X-User-ID"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SubmitShots(ctx context.Context, sub service.Submission) (service.SubmitResult, error)
	RoundStrokesGained(ctx context.Context, roundID, modelName string) (service.RoundReport, error)
	Rolling(ctx context.Context, q service.RollingQuery) (aggregate.RollingAverage, error)
	Leaderboard(ctx context.Context, userID string, q leaderboard.Query) ([]leaderboard.Row, error)

	Models(ctx context.Context) ([]string, error)
	ReplaceCurve(ctx context.Context, modelName string, kind baseline.Kind, points []baseline.Point) error
	SetParams(ctx context.Context, modelName string, p baseline.Params) error

	SavePlayer(ctx context.Context, p model.Player) error
	SaveRound(ctx context.Context, r model.Round) (model.Round, error)
	SaveHoleScores(ctx context.Context, roundID string, scores []model.HoleScore) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	roundsHandler      *RoundsHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
	baselinesHandler   *BaselinesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Get().Named("api")
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		roundsHandler:      NewRoundsHandler(deps, log),
		playersHandler:     NewPlayersHandler(deps, log),
		leaderboardHandler: NewLeaderboardHandler(deps, log),
		baselinesHandler:   NewBaselinesHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("PUT /rounds/{id}", MetricsMiddleware(s.roundsHandler.HandlePutRound, "round"))
	mux.HandleFunc("PUT /rounds/{id}/shots", MetricsMiddleware(s.roundsHandler.HandlePutShots, "shots"))
	mux.HandleFunc("PUT /rounds/{id}/scores", MetricsMiddleware(s.roundsHandler.HandlePutScores, "scores"))
	mux.HandleFunc("GET /rounds/{id}/strokes-gained", MetricsMiddleware(s.roundsHandler.HandleGetStrokesGained, "strokes_gained"))

	mux.HandleFunc("PUT /players/{id}", MetricsMiddleware(s.playersHandler.HandlePutPlayer, "player"))
	mux.HandleFunc("GET /players/{id}/rolling", MetricsMiddleware(s.playersHandler.HandleGetRolling, "rolling"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))

	mux.HandleFunc("GET /baselines", MetricsMiddleware(s.baselinesHandler.HandleListModels, "baselines"))
	mux.HandleFunc("PUT /baselines/{model}", MetricsMiddleware(s.baselinesHandler.HandlePutParams, "baseline_params"))
	mux.HandleFunc("PUT /baselines/{model}/{kind}", MetricsMiddleware(s.baselinesHandler.HandlePutCurve, "baseline_curve"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err, logs server-side failures and writes the body.
func writeError(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Int("status", status), logger.Error(err))
	}
	writeJSON(w, status, resp)
}

// decodeBody reads a JSON body into v, rejecting unknown fields and
// trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadBody)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", ErrBadRequest, field)
	}
	return t, nil
}

func parseInt(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, field)
	}
	return n, nil
}
