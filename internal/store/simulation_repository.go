package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// ErrSimulationNotFound is returned when a saved simulation id does not
// exist.
var ErrSimulationNotFound = errors.New("simulation not found")

// SavedSimulation is a persisted backtest run.
type SavedSimulation struct {
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	Result    contracts.SimulationResult `json:"result"`
}

// SimulationSummary is the list view of a saved run.
type SimulationSummary struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Index     contracts.Index `json:"index"`
	Rule      string          `json:"rule"`
	ProfitPct float64         `json:"profit_pct"`
}

// SimulationRepository persists completed backtest runs.
type SimulationRepository struct {
	pool *pgxpool.Pool
}

// NewSimulationRepository creates a new simulation repository
func NewSimulationRepository(pool *pgxpool.Pool) *SimulationRepository {
	return &SimulationRepository{pool: pool}
}

// Save stores a result and returns its generated id.
func (r *SimulationRepository) Save(ctx context.Context, result contracts.SimulationResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO simulations (index_name, rule, profit_pct, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`

	var id string
	err = r.pool.QueryRow(ctx, query,
		string(result.Config.Index), result.Config.Rule, result.ProfitPct, payload,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get loads a saved simulation by id.
func (r *SimulationRepository) Get(ctx context.Context, id string) (*SavedSimulation, error) {
	query := `
		SELECT id::text, created_at, payload
		FROM simulations
		WHERE id = $1::uuid
	`

	var sim SavedSimulation
	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&sim.ID, &sim.CreatedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSimulationNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &sim.Result); err != nil {
		return nil, err
	}
	return &sim, nil
}

// List returns summaries of saved simulations, newest first.
func (r *SimulationRepository) List(ctx context.Context, limit int) ([]SimulationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id::text, created_at, index_name, rule, profit_pct
		FROM simulations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []SimulationSummary
	for rows.Next() {
		var s SimulationSummary
		var indexName string
		if err := rows.Scan(&s.ID, &s.CreatedAt, &indexName, &s.Rule, &s.ProfitPct); err != nil {
			return nil, err
		}
		s.Index = contracts.Index(indexName)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
