package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const sgPrecision = 2

func fmtSG(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', sgPrecision, 64)
}

func fmtToPar(n int) string {
	switch {
	case n == 0:
		return "E"
	case n > 0:
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// printLeaderboard renders rows as a right-aligned table.
func printLeaderboard(w io.Writer, rows []leaderboard.Row) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Pos", "Player", "Team", "Rounds", "Avg To Par", "Best", "SG Total", "OTT", "APP", "ARG", "PUTT", "Last Played"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.PlayerName
		if name == "" {
			name = r.PlayerID
		}
		data = append(data, []string{
			strconv.Itoa(r.Position),
			name,
			r.TeamID,
			strconv.Itoa(r.RoundsPlayed),
			strconv.FormatFloat(r.AvgToPar, 'f', 1, 64),
			fmtToPar(r.BestRoundToPar),
			fmtSG(r.AvgSGTotal),
			fmtSG(r.AvgSGOTT),
			fmtSG(r.AvgSGApp),
			fmtSG(r.AvgSGArg),
			fmtSG(r.AvgSGPutt),
			r.LastPlayed.Format(time.DateOnly),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// printModels renders one line per baseline model.
func printModels(w io.Writer, models []*baseline.Model) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Model", "Short Game Yards", "Proxy Lie", "Putting Points", "Off-Green Points"})

	data := make([][]string, 0, len(models))
	for _, m := range models {
		p := m.Params()
		data = append(data, []string{
			m.Name(),
			fmt.Sprintf("%g", p.ShortGameYards),
			p.ProxyLie.String(),
			strconv.Itoa(len(m.Points(baseline.KindPutting))),
			strconv.Itoa(len(m.Points(baseline.KindOffGreen))),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
