package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
)

// Course layout: a par-72 card.
var (
	holePars    = [18]int{4, 4, 3, 5, 4, 4, 3, 4, 5, 4, 3, 4, 5, 4, 4, 3, 4, 5}
	holeLengths = map[int]float64{3: 175, 4: 405, 5: 535}
)

const (
	coursePar     = 72
	courseName    = "Simulated National"
	maxHoleShots  = 9
	shortGameEdge = 30.0
	driveCarry    = 245.0
	layupCarry    = 225.0
	feetPerYard   = 3.0
)

// Player is a generated golfer. Skill in [0,1] shifts every outcome.
type Player struct {
	ID     string
	Name   string
	TeamID string
	Skill  float64
}

// Round is a generated round with its full shot list.
type Round struct {
	ID           string
	SubmissionID string
	PlayerID     string
	TeamID       string
	RoundType    types.RoundType
	PlayedOn     time.Time
	Strokes      int
	Shots        []model.RawShot
}

type generator struct {
	rng  *rand.Rand
	base time.Time
}

func newGenerator(seed uint64, base time.Time) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), base: base}
}

func (g *generator) players(n, teams int) []Player {
	out := make([]Player, n)
	for i := range out {
		out[i] = Player{
			ID:     fmt.Sprintf("sim-player-%03d", i+1),
			Name:   fmt.Sprintf("Player %d", i+1),
			TeamID: fmt.Sprintf("sim-team-%d", i%teams+1),
			Skill:  g.rng.Float64(),
		}
	}
	return out
}

func (g *generator) rounds(p Player, n int) []Round {
	out := make([]Round, n)
	for i := range out {
		rt := types.Tournament
		if i%2 == 1 {
			rt = types.Practice
		}
		r := Round{
			ID:           uuid.NewString(),
			SubmissionID: uuid.NewString(),
			PlayerID:     p.ID,
			TeamID:       p.TeamID,
			RoundType:    rt,
			PlayedOn:     g.base.AddDate(0, 0, -i),
		}
		for h, par := range holePars {
			shots := g.hole(h+1, par, p.Skill)
			r.Shots = append(r.Shots, shots...)
			r.Strokes += len(shots)
		}
		out[i] = r
	}
	return out
}

// hole plays one hole from the tee until holed, capped at maxHoleShots.
func (g *generator) hole(num, par int, skill float64) []model.RawShot {
	lie := types.LieTee
	dist := holeLengths[par] + g.jitter(20)
	var shots []model.RawShot

	for len(shots) < maxHoleShots {
		last := len(shots) == maxHoleShots-1
		shot := model.RawShot{Hole: num, StartLie: lie.String()}
		if lie == types.LieGreen {
			shot.StartFeet = ptr(dist)
			shot.IsPutt = true
		} else {
			shot.StartYards = ptr(dist)
		}

		nextLie, next := g.outcome(lie, dist, par, skill)
		if last {
			nextLie = types.LieHole
		}
		shot.EndLie = nextLie.String()
		switch {
		case nextLie == types.LieHole:
		case nextLie == types.LieGreen:
			shot.EndFeet = ptr(next)
		default:
			shot.EndYards = ptr(next)
		}
		shots = append(shots, shot)
		if nextLie == types.LieHole {
			break
		}
		lie, dist = nextLie, next
	}
	return shots
}

// outcome returns where a shot from (lie, dist) finishes. Green distances
// are feet, everything else yards.
func (g *generator) outcome(lie types.Lie, dist float64, par int, skill float64) (types.Lie, float64) {
	switch {
	case lie == types.LieGreen:
		if g.rng.Float64() < makeProbability(dist, skill) {
			return types.LieHole, 0
		}
		return types.LieGreen, max(1, dist*0.12+g.rng.Float64()*(3.5-2*skill))

	case lie == types.LieTee && par > 3:
		carry := driveCarry + 25*skill + g.jitter(25)
		remaining := max(40, dist-carry)
		r := g.rng.Float64()
		switch {
		case r < 0.45+0.25*skill:
			return types.LieFairway, remaining
		case r < 0.92:
			return types.LieRough, remaining
		}
		return types.LieSand, remaining

	case dist > 250:
		return types.LieFairway, max(40, dist-layupCarry-g.jitter(15))

	case dist <= shortGameEdge:
		if g.rng.Float64() < 0.1*(1-skill) {
			return types.LieRough, max(3, dist*0.4)
		}
		return types.LieGreen, max(1, dist*feetPerYard*(0.15+0.35*(1-skill))*g.rng.Float64()+1)
	}

	penalty := 0.0
	if lie == types.LieRough || lie == types.LieSand {
		penalty = 0.12
	}
	if g.rng.Float64() < 0.8-dist/600+0.2*skill-penalty {
		return types.LieGreen, max(2, dist*(0.09+0.1*(1-skill))*feetPerYard*g.rng.Float64()+2)
	}
	if g.rng.Float64() < 0.25 {
		return types.LieSand, 5 + 20*g.rng.Float64()
	}
	return types.LieRough, 5 + 20*g.rng.Float64()
}

func makeProbability(feet, skill float64) float64 {
	switch {
	case feet <= 3:
		return 0.95 + 0.04*skill
	case feet <= 8:
		return 0.5 + 0.2*skill
	case feet <= 20:
		return 0.15 + 0.1*skill
	}
	return 0.04 + 0.04*skill
}

func (g *generator) jitter(spread float64) float64 {
	return (g.rng.Float64()*2 - 1) * spread
}

func ptr[T any](v T) *T { return &v }
