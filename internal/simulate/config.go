// Package simulate drives a running sgengine server with synthetic rounds
// and checks that the leaderboard it serves back is consistent.
package simulate

import (
	"runtime"
	"time"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Players         int           // Number of players to create
	RoundsPerPlayer int           // Rounds generated for each player
	Teams           int           // Players are spread round-robin over this many teams
	Workers         int           // Number of concurrent requests
	Timeout         time.Duration // HTTP request timeout
	Model           string        // Baseline model; empty uses the server default
	Seed            uint64        // Seed for the shot generator
	Resubmit        bool          // Replay every submission once to exercise dedupe
}

// Default configuration values.
const (
	DefaultBaseURL         = "http://localhost:9080"
	DefaultPlayers         = 24
	DefaultRoundsPerPlayer = 4
	DefaultTeams           = 3
	DefaultTimeout         = 30 * time.Second
)

// DefaultConfig returns a Config with every field set.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Players:         DefaultPlayers,
		RoundsPerPlayer: DefaultRoundsPerPlayer,
		Teams:           DefaultTeams,
		Workers:         runtime.NumCPU() * 2,
		Timeout:         DefaultTimeout,
		Seed:            1,
	}
}

func (c *Config) normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Players < 1 {
		c.Players = DefaultPlayers
	}
	if c.RoundsPerPlayer < 1 {
		c.RoundsPerPlayer = DefaultRoundsPerPlayer
	}
	if c.Teams < 1 {
		c.Teams = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Stats holds run statistics.
type Stats struct {
	Players         int
	Rounds          int
	ShotsSubmitted  int
	Duplicates      int
	Failed          int
	LeaderboardRows int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
