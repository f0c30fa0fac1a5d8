package model

import (
	"slices"
	"time"

	"github.com/okian/sgengine/internal/domain/types"
)

// RowFilter selects qualifying round rows. Zero values mean "any"; From and
// To bound PlayedOn inclusively, with To extended to the end of its day.
// When RestrictTeams is set only rows whose TeamID is in TeamIDs match, so an
// empty TeamIDs matches nothing.
type RowFilter struct {
	PlayerID      string
	TeamIDs       []string
	RestrictTeams bool
	RoundType     types.RoundType
	From          time.Time
	To            time.Time
}

// Matches reports whether row qualifies.
func (f RowFilter) Matches(row RoundRow) bool {
	if f.PlayerID != "" && row.PlayerID != f.PlayerID {
		return false
	}
	if f.RestrictTeams && !slices.Contains(f.TeamIDs, row.TeamID) {
		return false
	}
	if f.RoundType != "" && row.RoundType != f.RoundType {
		return false
	}
	if !f.From.IsZero() && row.PlayedOn.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && row.PlayedOn.After(EndOfDay(f.To)) {
		return false
	}
	return true
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
