package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/pkg/metrics"
)

// prepareRound fills defaults and validates a round before it is stored.
func prepareRound(r model.Round, now func() time.Time) (model.Round, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now().UTC()
	}
	if r.PlayedOn.IsZero() {
		r.PlayedOn = r.CreatedAt
	}
	if strings.TrimSpace(r.PlayerID) == "" {
		return model.Round{}, fmt.Errorf("%w: round player_id must not be empty", ErrInvalidRecord)
	}
	if r.RoundType == "" {
		return model.Round{}, fmt.Errorf("%w: round type must not be empty", ErrInvalidRecord)
	}
	return r, nil
}

// roundScore is what a store knows about a round's scorecard.
type roundScore struct {
	par, strokes int // round header
	holes        int // hole-score records
	holeToPar    int // summed strokes minus par over those records
}

// apply sets row's to-par from the hole scores, or from the header when the
// round has no hole scores but a header total. It reports whether the round
// qualifies for reporting: rounds with no score of either kind and no shots
// carry nothing to rank.
func (rs roundScore) apply(row *model.RoundRow) bool {
	switch {
	case rs.holes > 0:
		row.ToPar = rs.holeToPar
	case rs.strokes > 0:
		row.ToPar = rs.strokes - rs.par
	default:
		row.ToPar = 0
		row.Unscored = true
	}
	return !row.Unscored || row.ShotCount > 0
}

// classify maps timeouts and connection failures to *DataUnavailableError.
// Cancellation by the caller is returned untouched.
func classify(parent context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		metrics.RecordDataUnavailable(op)
		return &DataUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// observe records the latency of op since start.
func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, metrics.Since(start))
}
