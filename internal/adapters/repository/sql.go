package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// Dialect names accepted by NewSQLStore.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQLStore implements Store on database/sql for SQLite and PostgreSQL.
// Queries are written with '?' placeholders and rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect string
	opts    options
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens dsn with the driver for dialect and ensures the schema.
func NewSQLStore(ctx context.Context, dialect, dsn string, opts ...Option) (*SQLStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
	case DialectPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One connection: ":memory:" databases are per connection, and it
		// avoids "database is locked" on concurrent writers.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect, opts: o}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.fetchTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to %s database: %w", s.dialect, err)
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.fetchTimeout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLStore) FetchShots(ctx context.Context, roundID string) ([]model.Shot, error) {
	const op = "fetch_shots"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, s.rebind(`
		SELECT hole, seq, club, start_lie, start_distance, end_lie, end_distance, is_putt, penalty_strokes, penalty
		FROM shots WHERE round_id = ? ORDER BY hole, seq`), roundID)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Shot
	for rows.Next() {
		var sh model.Shot
		var startLie, endLie string
		var isPutt, penalty int
		if err := rows.Scan(&sh.Hole, &sh.Sequence, &sh.Club, &startLie, &sh.StartDistance, &endLie, &sh.EndDistance, &isPutt, &sh.PenaltyStrokes, &penalty); err != nil {
			return nil, classify(ctx, op, err)
		}
		sh.RoundID = roundID
		sh.StartLie = types.Lie(startLie)
		sh.EndLie = types.Lie(endLie)
		sh.IsPutt = isPutt != 0
		sh.Penalty = penalty != 0
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}
	return out, nil
}

func (s *SQLStore) ReplaceShots(ctx context.Context, roundID string, holes []int, shots []model.Shot) error {
	const op = "replace_shots"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for _, sh := range shots {
		if !slices.Contains(holes, sh.Hole) {
			return fmt.Errorf("%w: shot on hole %d outside replaced holes", ErrInvalidRecord, sh.Hole)
		}
	}

	tx, err := s.db.BeginTx(qctx, nil)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(qctx, s.rebind(`SELECT 1 FROM rounds WHERE id = ?`), roundID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	if err != nil {
		return classify(ctx, op, err)
	}

	for _, h := range holes {
		if _, err := tx.ExecContext(qctx, s.rebind(`DELETE FROM shots WHERE round_id = ? AND hole = ?`), roundID, h); err != nil {
			return classify(ctx, op, err)
		}
	}

	stmt, err := tx.PrepareContext(qctx, s.rebind(`
		INSERT INTO shots (round_id, hole, seq, club, start_lie, start_distance, end_lie, end_distance, is_putt, penalty_strokes, penalty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sh := range shots {
		if _, err := stmt.ExecContext(qctx, roundID, sh.Hole, sh.Sequence, sh.Club,
			string(sh.StartLie), sh.StartDistance, string(sh.EndLie), sh.EndDistance,
			boolInt(sh.IsPutt), sh.PenaltyStrokes, boolInt(sh.Penalty)); err != nil {
			return classify(ctx, op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, op, err)
	}
	return nil
}

func (s *SQLStore) FetchRoundRows(ctx context.Context, f model.RowFilter) ([]model.RoundRow, error) {
	const op = "fetch_round_rows"
	defer observe(op, time.Now())
	if f.RestrictTeams && len(f.TeamIDs) == 0 {
		return []model.RoundRow{}, nil
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var where []string
	var args []any
	if f.PlayerID != "" {
		where = append(where, "r.player_id = ?")
		args = append(args, f.PlayerID)
	}
	if f.RestrictTeams {
		where = append(where, "r.team_id IN (?"+strings.Repeat(", ?", len(f.TeamIDs)-1)+")")
		for _, t := range f.TeamIDs {
			args = append(args, t)
		}
	}
	if f.RoundType != "" {
		where = append(where, "r.round_type = ?")
		args = append(args, string(f.RoundType))
	}
	if !f.From.IsZero() {
		where = append(where, "r.played_on >= ?")
		args = append(args, f.From.UnixNano())
	}
	if !f.To.IsZero() {
		where = append(where, "r.played_on <= ?")
		args = append(args, model.EndOfDay(f.To).UnixNano())
	}

	q := `
		SELECT r.id, r.player_id, COALESCE(p.name, ''), r.team_id, r.course, r.round_type,
		       r.played_on, r.created_at, r.par, r.strokes,
		       (SELECT COUNT(*) FROM hole_scores h WHERE h.round_id = r.id),
		       (SELECT COALESCE(SUM(h.strokes - h.par), 0) FROM hole_scores h WHERE h.round_id = r.id),
		       (SELECT COUNT(*) FROM shots s WHERE s.round_id = r.id)
		FROM rounds r LEFT JOIN players p ON p.id = r.player_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.played_on, r.id"

	rows, err := s.db.QueryContext(qctx, s.rebind(q), args...)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.RoundRow, 0)
	for rows.Next() {
		var row model.RoundRow
		var rs roundScore
		var roundType string
		var playedOn, createdAt int64
		if err := rows.Scan(&row.RoundID, &row.PlayerID, &row.PlayerName, &row.TeamID, &row.Course, &roundType,
			&playedOn, &createdAt, &rs.par, &rs.strokes, &rs.holes, &rs.holeToPar, &row.ShotCount); err != nil {
			return nil, classify(ctx, op, err)
		}
		row.RoundType = types.RoundType(roundType)
		row.PlayedOn = time.Unix(0, playedOn).UTC()
		row.CreatedAt = time.Unix(0, createdAt).UTC()
		if rs.apply(&row) {
			out = append(out, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}
	return out, nil
}

func (s *SQLStore) FetchHoleScores(ctx context.Context, roundID string) ([]model.HoleScore, error) {
	const op = "fetch_hole_scores"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, s.rebind(`
		SELECT hole, par, strokes, putts, penalties, fairway_hit, gir
		FROM hole_scores WHERE round_id = ? ORDER BY hole`), roundID)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.HoleScore
	for rows.Next() {
		hs := model.HoleScore{RoundID: roundID}
		var fairway sql.NullInt64
		var gir int
		if err := rows.Scan(&hs.Hole, &hs.Par, &hs.Strokes, &hs.Putts, &hs.Penalties, &fairway, &gir); err != nil {
			return nil, classify(ctx, op, err)
		}
		if fairway.Valid {
			hit := fairway.Int64 != 0
			hs.FairwayHit = &hit
		}
		hs.GreenInRegulation = gir != 0
		out = append(out, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}
	return out, nil
}

func (s *SQLStore) FetchRound(ctx context.Context, roundID string) (model.Round, error) {
	const op = "fetch_round"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r := model.Round{ID: roundID}
	var roundType string
	var playedOn, createdAt int64
	err := s.db.QueryRowContext(qctx, s.rebind(`
		SELECT player_id, team_id, course, round_type, played_on, created_at, par, strokes
		FROM rounds WHERE id = ?`), roundID).
		Scan(&r.PlayerID, &r.TeamID, &r.Course, &roundType, &playedOn, &createdAt, &r.Par, &r.Strokes)
	if err == sql.ErrNoRows {
		return model.Round{}, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	if err != nil {
		return model.Round{}, classify(ctx, op, err)
	}
	r.RoundType = types.RoundType(roundType)
	r.PlayedOn = time.Unix(0, playedOn).UTC()
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}

func (s *SQLStore) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	const op = "save_round"
	r, err := prepareRound(r, s.opts.now)
	if err != nil {
		return model.Round{}, err
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(qctx, s.rebind(`
		INSERT INTO rounds (id, player_id, team_id, course, round_type, played_on, created_at, par, strokes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			player_id = excluded.player_id, team_id = excluded.team_id, course = excluded.course,
			round_type = excluded.round_type, played_on = excluded.played_on,
			par = excluded.par, strokes = excluded.strokes`),
		r.ID, r.PlayerID, r.TeamID, r.Course, string(r.RoundType), r.PlayedOn.UnixNano(), r.CreatedAt.UnixNano(), r.Par, r.Strokes)
	if err != nil {
		return model.Round{}, classify(ctx, op, err)
	}
	return r, nil
}

func (s *SQLStore) SaveHoleScores(ctx context.Context, roundID string, scores []model.HoleScore) error {
	const op = "save_hole_scores"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(qctx, nil)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(qctx, s.rebind(`SELECT 1 FROM rounds WHERE id = ?`), roundID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	if err != nil {
		return classify(ctx, op, err)
	}

	stmt, err := tx.PrepareContext(qctx, s.rebind(`
		INSERT INTO hole_scores (round_id, hole, par, strokes, putts, penalties, fairway_hit, gir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (round_id, hole) DO UPDATE SET
			par = excluded.par, strokes = excluded.strokes, putts = excluded.putts,
			penalties = excluded.penalties, fairway_hit = excluded.fairway_hit, gir = excluded.gir`))
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, hs := range scores {
		var fairway any
		if hs.FairwayHit != nil {
			fairway = boolInt(*hs.FairwayHit)
		}
		if _, err := stmt.ExecContext(qctx, roundID, hs.Hole, hs.Par, hs.Strokes, hs.Putts, hs.Penalties, fairway, boolInt(hs.GreenInRegulation)); err != nil {
			return classify(ctx, op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, op, err)
	}
	return nil
}

func (s *SQLStore) SavePlayer(ctx context.Context, p model.Player) error {
	const op = "save_player"
	if p.ID == "" {
		return fmt.Errorf("%w: player id must not be empty", ErrInvalidRecord)
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(qctx, s.rebind(`
		INSERT INTO players (id, name, team_id) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, team_id = excluded.team_id`),
		p.ID, p.Name, p.TeamID)
	return classify(ctx, op, err)
}

func (s *SQLStore) AddTeamMember(ctx context.Context, teamID, userID string) error {
	const op = "add_team_member"
	if teamID == "" || userID == "" {
		return fmt.Errorf("%w: team and user ids must not be empty", ErrInvalidRecord)
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(qctx, s.rebind(`
		INSERT INTO team_members (team_id, user_id) VALUES (?, ?)
		ON CONFLICT (team_id, user_id) DO NOTHING`), teamID, userID)
	return classify(ctx, op, err)
}

func (s *SQLStore) TeamsForUser(ctx context.Context, userID string) ([]string, error) {
	const op = "teams_for_user"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, s.rebind(`SELECT team_id FROM team_members WHERE user_id = ? ORDER BY team_id`), userID)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, classify(ctx, op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
