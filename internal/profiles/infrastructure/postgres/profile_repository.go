package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

const (
	defaultRunsTable  = "profile_runs"
	defaultRowsTable  = "hourly_profiles"
	defaultStatsTable = "profile_year_stats"
	defaultBatchSize  = 500
)

// ProfileRepository persists pipeline runs in Postgres.
// It implements both application.ResultSink and application.ProfileReader.
type ProfileRepository struct {
	db         *sql.DB
	runsTable  string
	rowsTable  string
	statsTable string
	batchSize  int
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ProfileRepository)

// WithTables overrides the default table names. Empty names keep their default.
func WithTables(runs, rows, stats string) RepositoryOption {
	return func(repo *ProfileRepository) {
		if runs != "" {
			repo.runsTable = runs
		}
		if rows != "" {
			repo.rowsTable = rows
		}
		if stats != "" {
			repo.statsTable = stats
		}
	}
}

// WithBatchSize sets how many rows go into one INSERT statement.
func WithBatchSize(size int) RepositoryOption {
	return func(repo *ProfileRepository) {
		if size > 0 {
			repo.batchSize = size
		}
	}
}

// NewProfileRepository constructs a repository with defaults.
func NewProfileRepository(db *sql.DB, opts ...RepositoryOption) *ProfileRepository {
	repo := &ProfileRepository{
		db:         db,
		runsTable:  defaultRunsTable,
		rowsTable:  defaultRowsTable,
		statsTable: defaultStatsTable,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Name implements application.ResultSink.
func (r *ProfileRepository) Name() string { return "postgres" }

// Write implements application.ResultSink.
func (r *ProfileRepository) Write(ctx context.Context, result *application.Result) error {
	return r.SaveRun(ctx, result)
}

// SaveRun stores a run, its rows and its per-year statistics in one transaction.
func (r *ProfileRepository) SaveRun(ctx context.Context, result *application.Result) (err error) {
	if r == nil || r.db == nil {
		return errors.New("profile repo: nil db")
	}
	if result == nil {
		return errors.New("profile repo: nil result")
	}
	if result.RunID == "" {
		return errors.New("profile repo: empty run id")
	}
	summary := result.Summary()

	params, err := json.Marshal(summary.Parameters)
	if err != nil {
		return err
	}
	inputs, err := json.Marshal(summary.Inputs)
	if err != nil {
		return err
	}
	filled, err := json.Marshal(summary.ForwardFilled)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	started_at,
	finished_at,
	parameters,
	inputs,
	forward_filled,
	row_count,
	first_key,
	last_key
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (run_id)
DO UPDATE SET
	started_at = EXCLUDED.started_at,
	finished_at = EXCLUDED.finished_at,
	parameters = EXCLUDED.parameters,
	inputs = EXCLUDED.inputs,
	forward_filled = EXCLUDED.forward_filled,
	row_count = EXCLUDED.row_count,
	first_key = EXCLUDED.first_key,
	last_key = EXCLUDED.last_key`, r.runsTable)
	if _, err = tx.ExecContext(ctx, query,
		summary.RunID,
		summary.StartedAt.UTC(),
		summary.FinishedAt.UTC(),
		string(params),
		string(inputs),
		string(filled),
		summary.Rows,
		string(summary.FirstKey),
		string(summary.LastKey),
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", r.rowsTable), summary.RunID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", r.statsTable), summary.RunID); err != nil {
		return err
	}

	if err = r.insertRows(ctx, tx, summary.RunID, result.Rows); err != nil {
		return err
	}
	if err = r.insertStats(ctx, tx, summary); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ProfileRepository) insertRows(ctx context.Context, tx *sql.Tx, runID string, rows []profiles.MergedRow) error {
	for start := 0; start < len(rows); start += r.batchSize {
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*5)
		for i, row := range batch {
			base := i * 5
			placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
			args = append(args, runID, string(row.Key), row.Demand, row.Solar, row.Wind)
		}
		query := fmt.Sprintf("INSERT INTO %s (run_id, datehour, demand, solar, wind) VALUES %s",
			r.rowsTable, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProfileRepository) insertStats(ctx context.Context, tx *sql.Tx, summary application.RunSummary) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	series,
	year_index,
	start_key,
	end_key,
	hours,
	capacity_factor,
	average,
	scale
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.statsTable)

	for _, stat := range summary.CapacityFactors {
		if _, err := tx.ExecContext(ctx, query,
			summary.RunID, stat.Series, stat.Index, string(stat.StartKey), string(stat.EndKey),
			stat.Hours, stat.CapacityFactor, 0.0, 0.0,
		); err != nil {
			return err
		}
	}
	for _, year := range summary.DemandYears {
		if _, err := tx.ExecContext(ctx, query,
			summary.RunID, profiles.SeriesDemand, year.Index, string(year.StartKey), string(year.EndKey),
			year.Hours, 0.0, year.Average, year.Scale,
		); err != nil {
			return err
		}
	}
	return nil
}

// LatestRun returns the most recently finished run.
func (r *ProfileRepository) LatestRun(ctx context.Context) (*application.RunSummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT run_id, started_at, finished_at, parameters, inputs, forward_filled, row_count, first_key, last_key
FROM %s
ORDER BY finished_at DESC, run_id DESC
LIMIT 1`, r.runsTable)

	var (
		summary  application.RunSummary
		params   []byte
		inputs   []byte
		filled   []byte
		firstKey string
		lastKey  string
	)
	row := r.db.QueryRowContext(ctx, query)
	if err := row.Scan(&summary.RunID, &summary.StartedAt, &summary.FinishedAt, &params, &inputs, &filled,
		&summary.Rows, &firstKey, &lastKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, application.ErrNoRun
		}
		return nil, err
	}
	summary.FirstKey = profiles.DatehourKey(strings.TrimSpace(firstKey))
	summary.LastKey = profiles.DatehourKey(strings.TrimSpace(lastKey))
	if err := json.Unmarshal(params, &summary.Parameters); err != nil {
		return nil, fmt.Errorf("profile repo: decode parameters: %w", err)
	}
	if err := json.Unmarshal(inputs, &summary.Inputs); err != nil {
		return nil, fmt.Errorf("profile repo: decode inputs: %w", err)
	}
	if err := json.Unmarshal(filled, &summary.ForwardFilled); err != nil {
		return nil, fmt.Errorf("profile repo: decode forward fills: %w", err)
	}
	if err := r.loadStats(ctx, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *ProfileRepository) loadStats(ctx context.Context, summary *application.RunSummary) error {
	query := fmt.Sprintf(`
SELECT series, year_index, start_key, end_key, hours, capacity_factor, average, scale
FROM %s
WHERE run_id = $1
ORDER BY series, year_index`, r.statsTable)

	rows, err := r.db.QueryContext(ctx, query, summary.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var generation []application.YearCapacityFactor
	for rows.Next() {
		var (
			series     string
			index      int
			start, end string
			hours      int
			cf         float64
			average    float64
			scale      float64
		)
		if err := rows.Scan(&series, &index, &start, &end, &hours, &cf, &average, &scale); err != nil {
			return err
		}
		startKey := profiles.DatehourKey(strings.TrimSpace(start))
		endKey := profiles.DatehourKey(strings.TrimSpace(end))
		if series == profiles.SeriesDemand {
			summary.DemandYears = append(summary.DemandYears, profiles.DemandYearStat{
				Index:    index,
				StartKey: startKey,
				EndKey:   endKey,
				Hours:    hours,
				Average:  average,
				Scale:    scale,
			})
			continue
		}
		generation = append(generation, application.YearCapacityFactor{
			Series:         series,
			Index:          index,
			StartKey:       startKey,
			EndKey:         endKey,
			Hours:          hours,
			CapacityFactor: cf,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	summary.CapacityFactors = orderGeneration(generation)
	return nil
}

// orderGeneration lists solar before wind, matching Result.Summary.
func orderGeneration(stats []application.YearCapacityFactor) []application.YearCapacityFactor {
	ordered := make([]application.YearCapacityFactor, 0, len(stats))
	for _, name := range []string{profiles.SeriesSolar, profiles.SeriesWind} {
		for _, stat := range stats {
			if stat.Series == name {
				ordered = append(ordered, stat)
			}
		}
	}
	return ordered
}

// ListRows returns rows of the latest run with from <= key < to. Empty bounds are open.
func (r *ProfileRepository) ListRows(ctx context.Context, from, to profiles.DatehourKey) ([]profiles.MergedRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	latest, err := r.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	return r.ListRunRows(ctx, latest.RunID, from, to)
}

// ListRunRows returns rows of one run with from <= key < to.
func (r *ProfileRepository) ListRunRows(ctx context.Context, runID string, from, to profiles.DatehourKey) ([]profiles.MergedRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	if runID == "" {
		return nil, errors.New("profile repo: empty run id")
	}

	clauses := []string{"run_id = $1"}
	args := []any{runID}
	if from != "" {
		args = append(args, string(from))
		clauses = append(clauses, fmt.Sprintf("datehour >= $%d", len(args)))
	}
	if to != "" {
		args = append(args, string(to))
		clauses = append(clauses, fmt.Sprintf("datehour < $%d", len(args)))
	}
	query := fmt.Sprintf(`
SELECT datehour, demand, solar, wind
FROM %s
WHERE %s
ORDER BY datehour ASC`, r.rowsTable, strings.Join(clauses, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []profiles.MergedRow
	for rows.Next() {
		var (
			key string
			row profiles.MergedRow
		)
		if err := rows.Scan(&key, &row.Demand, &row.Solar, &row.Wind); err != nil {
			return nil, err
		}
		row.Key = profiles.DatehourKey(strings.TrimSpace(key))
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
