package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/types"
)

var _ baseline.Persister = (*SQLStore)(nil)

// SaveCurve replaces the stored points of one curve of model and upserts the
// model's params in the same transaction.
func (s *SQLStore) SaveCurve(ctx context.Context, model string, p baseline.Params, kind baseline.Kind, points []baseline.Point) error {
	const op = "save_curve"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(qctx, nil)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(qctx, s.rebind(`
		INSERT INTO baseline_models (name, short_game_yards, proxy_lie) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET short_game_yards = excluded.short_game_yards, proxy_lie = excluded.proxy_lie`),
		model, p.ShortGameYards, string(p.ProxyLie)); err != nil {
		return classify(ctx, op, err)
	}
	if _, err := tx.ExecContext(qctx, s.rebind(`DELETE FROM baseline_points WHERE model = ? AND kind = ?`), model, string(kind)); err != nil {
		return classify(ctx, op, err)
	}

	stmt, err := tx.PrepareContext(qctx, s.rebind(`
		INSERT INTO baseline_points (model, kind, lie, distance, expected) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return classify(ctx, op, err)
	}
	defer func() { _ = stmt.Close() }()
	for _, pt := range points {
		if _, err := stmt.ExecContext(qctx, model, string(kind), string(pt.Lie), pt.Distance, pt.Expected); err != nil {
			return classify(ctx, op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, op, err)
	}
	return nil
}

// SaveParams upserts the tuning values of model.
func (s *SQLStore) SaveParams(ctx context.Context, model string, p baseline.Params) error {
	const op = "save_params"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(qctx, s.rebind(`
		INSERT INTO baseline_models (name, short_game_yards, proxy_lie) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET short_game_yards = excluded.short_game_yards, proxy_lie = excluded.proxy_lie`),
		model, p.ShortGameYards, string(p.ProxyLie))
	return classify(ctx, op, err)
}

// LoadBaselines reads every stored model, ordered by name.
func (s *SQLStore) LoadBaselines(ctx context.Context) ([]baseline.ModelSpec, error) {
	const op = "load_baselines"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, `SELECT name, short_game_yards, proxy_lie FROM baseline_models ORDER BY name`)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	var models []baseline.ModelSpec
	index := map[string]int{}
	for rows.Next() {
		var ms baseline.ModelSpec
		var proxy string
		if err := rows.Scan(&ms.Name, &ms.Params.ShortGameYards, &proxy); err != nil {
			_ = rows.Close()
			return nil, classify(ctx, op, err)
		}
		ms.Params.ProxyLie = types.Lie(proxy)
		index[ms.Name] = len(models)
		models = append(models, ms)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}

	points, err := s.db.QueryContext(qctx, `SELECT model, kind, lie, distance, expected FROM baseline_points ORDER BY model, kind, lie, distance`)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer func() { _ = points.Close() }()
	for points.Next() {
		var name, kind, lie string
		var p baseline.Point
		if err := points.Scan(&name, &kind, &lie, &p.Distance, &p.Expected); err != nil {
			return nil, classify(ctx, op, err)
		}
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: points for unknown model %q", ErrInvalidRecord, name)
		}
		p.Lie = types.Lie(lie)
		switch baseline.Kind(kind) {
		case baseline.KindPutting:
			models[i].Putting = append(models[i].Putting, p)
		case baseline.KindOffGreen:
			models[i].OffGreen = append(models[i].OffGreen, p)
		default:
			return nil, fmt.Errorf("%w: unknown curve kind %q", ErrInvalidRecord, kind)
		}
	}
	if err := points.Err(); err != nil {
		return nil, classify(ctx, op, err)
	}
	return models, nil
}
