package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage team membership used by team-scoped leaderboards",
}

var teamAddCmd = &cobra.Command{
	Use:   "add <team-id> <user-id>",
	Short: "Add a user to a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := newService(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		if err := svc.AddTeamMember(ctx, args[0], args[1]); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s added to %s\n", args[1], args[0])
		return err
	},
}

func init() {
	teamCmd.AddCommand(teamAddCmd)
}
