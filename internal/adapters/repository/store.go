// Package repository persists players, rounds, hole scores and shots, and
// serves the reporting rows the leaderboard is built from.
package repository

import (
	"context"

	"github.com/okian/sgengine/internal/domain/model"
)

// Store is the persistence collaborator of the engine.
type Store interface {
	// FetchShots returns a round's shots ordered by (hole, sequence).
	FetchShots(ctx context.Context, roundID string) ([]model.Shot, error)
	// ReplaceShots deletes the round's shots on holes and inserts shots, as
	// one atomic unit. Shots on other holes are untouched.
	ReplaceShots(ctx context.Context, roundID string, holes []int, shots []model.Shot) error
	// FetchRoundRows returns one row per qualifying round. SG fields are left nil.
	FetchRoundRows(ctx context.Context, f model.RowFilter) ([]model.RoundRow, error)
	// FetchHoleScores returns a round's scorecard ordered by hole.
	FetchHoleScores(ctx context.Context, roundID string) ([]model.HoleScore, error)
	// FetchRound returns a round or ErrNotFound.
	FetchRound(ctx context.Context, roundID string) (model.Round, error)

	// SaveRound upserts r, assigning an id and creation time when missing.
	SaveRound(ctx context.Context, r model.Round) (model.Round, error)
	// SaveHoleScores upserts scorecard lines for a round.
	SaveHoleScores(ctx context.Context, roundID string, scores []model.HoleScore) error
	// SavePlayer upserts a player.
	SavePlayer(ctx context.Context, p model.Player) error
	// AddTeamMember links a user to a team.
	AddTeamMember(ctx context.Context, teamID, userID string) error
	// TeamsForUser lists the teams a user belongs to.
	TeamsForUser(ctx context.Context, userID string) ([]string, error)

	Close() error
}
