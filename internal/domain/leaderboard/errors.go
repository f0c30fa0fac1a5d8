package leaderboard

import "errors"

// Sentinel errors for leaderboard queries.
var (
	ErrUnknownScope = errors.New("unknown leaderboard scope")
	ErrInvalidQuery = errors.New("invalid leaderboard query")
)
