package simulate

import (
	"errors"
	"fmt"

	"github.com/okian/sgengine/internal/domain/leaderboard"
)

// ErrInconsistent is returned when the served leaderboard breaks an ordering
// or counting rule.
var ErrInconsistent = errors.New("leaderboard inconsistent")

// verifyLeaderboard checks that rows cover every player exactly once with
// the expected round count, carry positions 1..n, and are ordered.
func verifyLeaderboard(rows []leaderboard.Row, players []Player, rounds int) error {
	if len(rows) != len(players) {
		return fmt.Errorf("%w: %d rows for %d players", ErrInconsistent, len(rows), len(players))
	}
	want := make(map[string]bool, len(players))
	for _, p := range players {
		want[p.ID] = true
	}

	for i, row := range rows {
		if row.Position != i+1 {
			return fmt.Errorf("%w: row %d has position %d", ErrInconsistent, i, row.Position)
		}
		if !want[row.PlayerID] {
			return fmt.Errorf("%w: unexpected or repeated player %q", ErrInconsistent, row.PlayerID)
		}
		delete(want, row.PlayerID)
		if row.RoundsPlayed != rounds {
			return fmt.Errorf("%w: player %q has %d rounds, want %d", ErrInconsistent, row.PlayerID, row.RoundsPlayed, rounds)
		}
		if row.AvgSGTotal == nil {
			return fmt.Errorf("%w: player %q has no strokes gained", ErrInconsistent, row.PlayerID)
		}
		if i > 0 && leaderboard.Compare(rows[i-1], row) > 0 {
			return fmt.Errorf("%w: rows %d and %d out of order", ErrInconsistent, i, i+1)
		}
	}
	return nil
}
