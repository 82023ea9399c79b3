package store

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// ConstituentRepository implements contracts.ConstituentSource by replaying
// the index change log. The constituent_changes table stores additions and
// removals in chronological order; the membership at any date is the
// current membership with the changes after that date undone.
type ConstituentRepository struct {
	pool *pgxpool.Pool
}

// NewConstituentRepository creates a new constituent repository
func NewConstituentRepository(pool *pgxpool.Pool) *ConstituentRepository {
	return &ConstituentRepository{pool: pool}
}

// At returns the sorted index membership as of date.
func (r *ConstituentRepository) At(ctx context.Context, index contracts.Index, date time.Time) ([]string, error) {
	current, err := r.currentMembers(ctx, index)
	if err != nil {
		return nil, err
	}

	changes, err := r.changesAfter(ctx, index, date)
	if err != nil {
		return nil, err
	}

	members := make(map[string]bool, len(current))
	for _, s := range current {
		members[s] = true
	}

	// Undo changes newest first: a later addition is removed, a later
	// removal is restored.
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i].AddedSymbol != "" {
			delete(members, changes[i].AddedSymbol)
		}
		if changes[i].RemovedSymbol != "" {
			members[changes[i].RemovedSymbol] = true
		}
	}

	symbols := make([]string, 0, len(members))
	for s := range members {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	if len(symbols) == 0 {
		return nil, &contracts.DataUnavailableError{
			Symbol: string(index),
			Date:   date,
			Err:    pgx.ErrNoRows,
		}
	}
	return symbols, nil
}

func (r *ConstituentRepository) currentMembers(ctx context.Context, index contracts.Index) ([]string, error) {
	query := `
		SELECT symbol
		FROM index_constituents
		WHERE index_name = $1
		ORDER BY symbol ASC
	`

	rows, err := r.pool.Query(ctx, query, string(index))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

func (r *ConstituentRepository) changesAfter(ctx context.Context, index contracts.Index, date time.Time) ([]contracts.ConstituentChange, error) {
	query := `
		SELECT change_date, COALESCE(added_symbol, ''), COALESCE(removed_symbol, '')
		FROM constituent_changes
		WHERE index_name = $1 AND change_date > $2
		ORDER BY change_date ASC
	`

	rows, err := r.pool.Query(ctx, query, string(index), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []contracts.ConstituentChange
	for rows.Next() {
		var c contracts.ConstituentChange
		if err := rows.Scan(&c.Date, &c.AddedSymbol, &c.RemovedSymbol); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// SaveMembers replaces the current membership snapshot for an index.
func (r *ConstituentRepository) SaveMembers(ctx context.Context, index contracts.Index, symbols []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM index_constituents WHERE index_name = $1`, string(index)); err != nil {
		return err
	}
	for _, s := range symbols {
		if _, err := tx.Exec(ctx,
			`INSERT INTO index_constituents (index_name, symbol) VALUES ($1, $2)`,
			string(index), s,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SaveChanges upserts change-log entries.
func (r *ConstituentRepository) SaveChanges(ctx context.Context, index contracts.Index, changes []contracts.ConstituentChange) error {
	if len(changes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO constituent_changes (index_name, change_date, added_symbol, removed_symbol)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (index_name, change_date, added_symbol, removed_symbol) DO NOTHING
	`
	for _, c := range changes {
		batch.Queue(query, string(index), c.Date, c.AddedSymbol, c.RemovedSymbol)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range changes {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
