package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/okian/sgengine/internal/domain/model"
)

type holeKey struct {
	round string
	hole  int
}

// MemoryStore keeps everything in maps behind one RWMutex. ReplaceShots runs
// under the write lock, so readers never see a half-replaced hole set.
type MemoryStore struct {
	mu      sync.RWMutex
	opts    options
	players map[string]model.Player
	rounds  map[string]model.Round
	scores  map[holeKey]model.HoleScore
	shots   map[holeKey][]model.Shot
	members map[string]map[string]struct{} // user -> teams
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:    o,
		players: map[string]model.Player{},
		rounds:  map[string]model.Round{},
		scores:  map[holeKey]model.HoleScore{},
		shots:   map[holeKey][]model.Shot{},
		members: map[string]map[string]struct{}{},
	}
}

func (s *MemoryStore) FetchShots(ctx context.Context, roundID string) ([]model.Shot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe("fetch_shots", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Shot
	for k, shots := range s.shots {
		if k.round == roundID {
			out = append(out, shots...)
		}
	}
	sortShots(out)
	return out, nil
}

func (s *MemoryStore) ReplaceShots(ctx context.Context, roundID string, holes []int, shots []model.Shot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer observe("replace_shots", time.Now())

	byHole := map[int][]model.Shot{}
	for _, sh := range shots {
		if !slices.Contains(holes, sh.Hole) {
			return fmt.Errorf("%w: shot on hole %d outside replaced holes", ErrInvalidRecord, sh.Hole)
		}
		sh.RoundID = roundID
		byHole[sh.Hole] = append(byHole[sh.Hole], sh)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	for _, h := range holes {
		delete(s.shots, holeKey{roundID, h})
	}
	for h, hs := range byHole {
		s.shots[holeKey{roundID, h}] = hs
	}
	return nil
}

func (s *MemoryStore) FetchRoundRows(ctx context.Context, f model.RowFilter) ([]model.RoundRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe("fetch_round_rows", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	shotCount := map[string]int{}
	for k, shots := range s.shots {
		shotCount[k.round] += len(shots)
	}
	scored := map[string]roundScore{}
	for k, hs := range s.scores {
		rs := scored[k.round]
		rs.holes++
		rs.holeToPar += hs.ToPar()
		scored[k.round] = rs
	}

	out := make([]model.RoundRow, 0)
	for _, r := range s.rounds {
		row := model.RoundRow{
			RoundID:    r.ID,
			PlayerID:   r.PlayerID,
			PlayerName: s.players[r.PlayerID].Name,
			TeamID:     r.TeamID,
			Course:     r.Course,
			RoundType:  r.RoundType,
			PlayedOn:   r.PlayedOn,
			CreatedAt:  r.CreatedAt,
			ShotCount:  shotCount[r.ID],
		}
		rs := scored[r.ID]
		rs.par, rs.strokes = r.Par, r.Strokes
		if rs.apply(&row) && f.Matches(row) {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b model.RoundRow) int {
		if c := a.PlayedOn.Compare(b.PlayedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.RoundID, b.RoundID)
	})
	return out, nil
}

func (s *MemoryStore) FetchHoleScores(ctx context.Context, roundID string) ([]model.HoleScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.HoleScore
	for k, hs := range s.scores {
		if k.round == roundID {
			out = append(out, hs)
		}
	}
	slices.SortFunc(out, func(a, b model.HoleScore) int { return cmp.Compare(a.Hole, b.Hole) })
	return out, nil
}

func (s *MemoryStore) FetchRound(ctx context.Context, roundID string) (model.Round, error) {
	if err := ctx.Err(); err != nil {
		return model.Round{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return model.Round{}, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	return r, nil
}

func (s *MemoryStore) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	if err := ctx.Err(); err != nil {
		return model.Round{}, err
	}
	r, err := prepareRound(r, s.opts.now)
	if err != nil {
		return model.Round{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.ID] = r
	return r, nil
}

func (s *MemoryStore) SaveHoleScores(ctx context.Context, roundID string, scores []model.HoleScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	for _, hs := range scores {
		hs.RoundID = roundID
		s.scores[holeKey{roundID, hs.Hole}] = hs
	}
	return nil
}

func (s *MemoryStore) SavePlayer(ctx context.Context, p model.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("%w: player id must not be empty", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) AddTeamMember(ctx context.Context, teamID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if teamID == "" || userID == "" {
		return fmt.Errorf("%w: team and user ids must not be empty", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[userID] == nil {
		s.members[userID] = map[string]struct{}{}
	}
	s.members[userID][teamID] = struct{}{}
	return nil
}

func (s *MemoryStore) TeamsForUser(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.members[userID])), nil
}

func (s *MemoryStore) Close() error { return nil }

func sortShots(shots []model.Shot) {
	slices.SortFunc(shots, func(a, b model.Shot) int {
		if c := cmp.Compare(a.Hole, b.Hole); c != 0 {
			return c
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})
}
