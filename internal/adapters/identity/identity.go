// Package identity resolves the acting user's team memberships for
// team-scoped leaderboards.
package identity

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Resolver answers which teams a user belongs to.
type Resolver interface {
	Teams(ctx context.Context, userID string) ([]string, error)
}

// TeamLister is the storage side of team membership.
type TeamLister interface {
	TeamsForUser(ctx context.Context, userID string) ([]string, error)
}

// StoreResolver implements Resolver on a TeamLister.
type StoreResolver struct {
	teams TeamLister
}

// NewStoreResolver creates a resolver reading memberships from teams.
func NewStoreResolver(teams TeamLister) *StoreResolver {
	return &StoreResolver{teams: teams}
}

// Teams implements Resolver. An anonymous user belongs to no team.
func (r *StoreResolver) Teams(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []string{}, nil
	}
	teams, err := r.teams.TeamsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve teams for %s: %w", userID, err)
	}
	if teams == nil {
		teams = []string{}
	}
	return teams, nil
}

// Static is a fixed user -> teams table.
type Static map[string][]string

// Teams implements Resolver.
func (s Static) Teams(_ context.Context, userID string) ([]string, error) {
	teams := slices.Clone(s[userID])
	if teams == nil {
		teams = []string{}
	}
	return teams, nil
}
