package main

import (
	"fmt"
	"time"

	"github.com/okian/sgengine/internal/simulate"
	"github.com/spf13/cobra"
)

var simCfg = simulate.DefaultConfig()

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive a running server with synthetic rounds and verify its leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := simulate.Run(cmd.Context(), simCfg)
		if err != nil {
			return err
		}
		if err := printLeaderboard(cmd.OutOrStdout(), report.Leaderboard); err != nil {
			return err
		}
		s := report.Stats
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d players, %d rounds, %d shots, %d duplicates in %s\n",
			s.Players, s.Rounds, s.ShotsSubmitted, s.Duplicates, s.Duration.Round(time.Millisecond))
		return err
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simCfg.BaseURL, "url", simCfg.BaseURL, "base URL of the service")
	f.IntVar(&simCfg.Players, "players", simCfg.Players, "number of players")
	f.IntVar(&simCfg.RoundsPerPlayer, "rounds", simCfg.RoundsPerPlayer, "rounds per player")
	f.IntVar(&simCfg.Teams, "teams", simCfg.Teams, "number of teams")
	f.IntVar(&simCfg.Workers, "workers", simCfg.Workers, "concurrent requests")
	f.DurationVar(&simCfg.Timeout, "timeout", simCfg.Timeout, "HTTP request timeout")
	f.StringVar(&simCfg.Model, "model", "", "baseline model; empty uses the server default")
	f.Uint64Var(&simCfg.Seed, "seed", simCfg.Seed, "shot generator seed")
	f.BoolVar(&simCfg.Resubmit, "resubmit", false, "replay each submission to check dedupe")
}
