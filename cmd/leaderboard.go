package main

import (
	"time"

	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/spf13/cobra"
)

var lbFlags struct {
	scope     string
	user      string
	roundType string
	from      string
	to        string
	model     string
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the leaderboard computed from the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := leaderboardQuery()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		svc, err := newService(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		rows, err := svc.Leaderboard(ctx, lbFlags.user, q)
		if err != nil {
			return err
		}
		return printLeaderboard(cmd.OutOrStdout(), rows)
	},
}

func init() {
	f := leaderboardCmd.Flags()
	f.StringVar(&lbFlags.scope, "scope", "all", "all or team")
	f.StringVar(&lbFlags.user, "user", "", "acting user for team scope")
	f.StringVar(&lbFlags.roundType, "round-type", "", "Tournament, Qualifying or Practice")
	f.StringVar(&lbFlags.from, "from", "", "first played date, YYYY-MM-DD")
	f.StringVar(&lbFlags.to, "to", "", "last played date, YYYY-MM-DD")
	f.StringVar(&lbFlags.model, "model", "", "baseline model; defaults to default_model")
}

func leaderboardQuery() (leaderboard.Query, error) {
	scope, err := leaderboard.ParseScope(lbFlags.scope)
	if err != nil {
		return leaderboard.Query{}, err
	}
	q := leaderboard.Query{Scope: scope, Model: lbFlags.model}
	if lbFlags.roundType != "" {
		if q.RoundType, err = types.ParseRoundType(lbFlags.roundType); err != nil {
			return leaderboard.Query{}, err
		}
	}
	if lbFlags.from != "" {
		if q.From, err = time.Parse(time.DateOnly, lbFlags.from); err != nil {
			return leaderboard.Query{}, err
		}
	}
	if lbFlags.to != "" {
		if q.To, err = time.Parse(time.DateOnly, lbFlags.to); err != nil {
			return leaderboard.Query{}, err
		}
	}
	return q, q.Validate()
}
