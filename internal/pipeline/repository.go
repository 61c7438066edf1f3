package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// ErrNoRuns is returned when the repository holds no completed run yet
var ErrNoRuns = errors.New("no pipeline runs recorded")

// RunStore persists run state after every phase so a crash mid-run
// never loses completed phases' output
type RunStore interface {
	SaveRun(ctx context.Context, run *contracts.PipelineRun) error
	GetRun(ctx context.Context, id string) (*contracts.PipelineRun, error)
	LatestRun(ctx context.Context) (*contracts.PipelineRun, error)
}

// Repository is the Postgres-backed RunStore
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveRun upserts the whole run state: the run row, its scores and its
// error log. Called after every phase, so the statement is idempotent.
func (r *Repository) SaveRun(ctx context.Context, run *contracts.PipelineRun) error {
	phasesJSON, err := json.Marshal(run.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	regimeJSON, err := json.Marshal(run.Regime)
	if err != nil {
		return fmt.Errorf("marshal regime: %w", err)
	}
	sentimentJSON, err := json.Marshal(run.Sentiment)
	if err != nil {
		return fmt.Errorf("marshal sentiment: %w", err)
	}
	sectorsJSON, err := json.Marshal(run.Sectors)
	if err != nil {
		return fmt.Errorf("marshal sectors: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO screener.runs (
			id, run_date, mode, strategy_hash, status, started_at, ended_at,
			phases, regime, sentiment, sectors, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '0001-01-01'::timestamptz), $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			ended_at = EXCLUDED.ended_at,
			phases = EXCLUDED.phases,
			regime = EXCLUDED.regime,
			sentiment = EXCLUDED.sentiment,
			sectors = EXCLUDED.sectors,
			updated_at = NOW()
	`, run.ID, run.Date, run.Mode, run.StrategyHash, run.Status, run.StartedAt, run.EndedAt,
		phasesJSON, regimeJSON, sentimentJSON, sectorsJSON)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	if err := r.saveScores(ctx, tx, run); err != nil {
		return err
	}
	if err := r.saveErrors(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

func (r *Repository) saveScores(ctx context.Context, tx pgx.Tx, run *contracts.PipelineRun) error {
	if _, err := tx.Exec(ctx, `DELETE FROM screener.run_scores WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear run scores: %w", err)
	}

	for rank, score := range run.Scores {
		factorsJSON, err := json.Marshal(score.Factors)
		if err != nil {
			return fmt.Errorf("marshal factors: %w", err)
		}
		betasJSON, err := json.Marshal(score.Betas)
		if err != nil {
			return fmt.Errorf("marshal betas: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO screener.run_scores (
				run_id, rank, symbol, sector, composite, factors, betas, signal, degraded
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, rank+1, score.Symbol, score.Sector, score.Composite,
			factorsJSON, betasJSON, score.Signal, score.Degraded)
		if err != nil {
			return fmt.Errorf("insert score %s: %w", score.Symbol, err)
		}
	}
	return nil
}

func (r *Repository) saveErrors(ctx context.Context, tx pgx.Tx, run *contracts.PipelineRun) error {
	if _, err := tx.Exec(ctx, `DELETE FROM screener.run_errors WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear run errors: %w", err)
	}

	for _, e := range run.Errors {
		_, err := tx.Exec(ctx, `
			INSERT INTO screener.run_errors (
				run_id, phase, symbol, code, message, fatal, occurred_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, e.Phase, e.Symbol, e.Code, e.Message, e.Fatal, e.At)
		if err != nil {
			return fmt.Errorf("insert run error: %w", err)
		}
	}
	return nil
}

// GetRun loads one run with its scores and error log
func (r *Repository) GetRun(ctx context.Context, id string) (*contracts.PipelineRun, error) {
	return r.loadRun(ctx, `
		SELECT id, run_date, mode, strategy_hash, status, started_at, COALESCE(ended_at, '0001-01-01'::timestamptz),
		       phases, regime, sentiment, sectors
		FROM screener.runs
		WHERE id = $1
	`, id)
}

// LatestRun loads the most recently started run
func (r *Repository) LatestRun(ctx context.Context) (*contracts.PipelineRun, error) {
	return r.loadRun(ctx, `
		SELECT id, run_date, mode, strategy_hash, status, started_at, COALESCE(ended_at, '0001-01-01'::timestamptz),
		       phases, regime, sentiment, sectors
		FROM screener.runs
		ORDER BY started_at DESC
		LIMIT 1
	`)
}

func (r *Repository) loadRun(ctx context.Context, query string, args ...interface{}) (*contracts.PipelineRun, error) {
	run := &contracts.PipelineRun{}
	var phasesJSON, regimeJSON, sentimentJSON, sectorsJSON []byte

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&run.ID, &run.Date, &run.Mode, &run.StrategyHash, &run.Status, &run.StartedAt, &run.EndedAt,
		&phasesJSON, &regimeJSON, &sentimentJSON, &sectorsJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	if err := json.Unmarshal(phasesJSON, &run.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	if err := json.Unmarshal(regimeJSON, &run.Regime); err != nil {
		return nil, fmt.Errorf("unmarshal regime: %w", err)
	}
	if err := json.Unmarshal(sentimentJSON, &run.Sentiment); err != nil {
		return nil, fmt.Errorf("unmarshal sentiment: %w", err)
	}
	if len(sectorsJSON) > 0 {
		if err := json.Unmarshal(sectorsJSON, &run.Sectors); err != nil {
			return nil, fmt.Errorf("unmarshal sectors: %w", err)
		}
	}

	if err := r.loadScores(ctx, run); err != nil {
		return nil, err
	}
	if err := r.loadErrors(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Repository) loadScores(ctx context.Context, run *contracts.PipelineRun) error {
	rows, err := r.db.Query(ctx, `
		SELECT symbol, sector, composite, factors, betas, signal, degraded
		FROM screener.run_scores
		WHERE run_id = $1
		ORDER BY rank
	`, run.ID)
	if err != nil {
		return fmt.Errorf("query run scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var score contracts.OpportunityScore
		var factorsJSON, betasJSON []byte
		if err := rows.Scan(&score.Symbol, &score.Sector, &score.Composite,
			&factorsJSON, &betasJSON, &score.Signal, &score.Degraded); err != nil {
			return fmt.Errorf("scan score: %w", err)
		}
		if err := json.Unmarshal(factorsJSON, &score.Factors); err != nil {
			return fmt.Errorf("unmarshal factors: %w", err)
		}
		if err := json.Unmarshal(betasJSON, &score.Betas); err != nil {
			return fmt.Errorf("unmarshal betas: %w", err)
		}
		run.Scores = append(run.Scores, score)
	}
	return rows.Err()
}

func (r *Repository) loadErrors(ctx context.Context, run *contracts.PipelineRun) error {
	rows, err := r.db.Query(ctx, `
		SELECT phase, symbol, code, message, fatal, occurred_at
		FROM screener.run_errors
		WHERE run_id = $1
		ORDER BY occurred_at
	`, run.ID)
	if err != nil {
		return fmt.Errorf("query run errors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e contracts.RunError
		if err := rows.Scan(&e.Phase, &e.Symbol, &e.Code, &e.Message, &e.Fatal, &e.At); err != nil {
			return fmt.Errorf("scan run error: %w", err)
		}
		run.Errors = append(run.Errors, e)
	}
	return rows.Err()
}
