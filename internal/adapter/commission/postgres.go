package commission

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// lookupQuery narrows candidates by carrier; market, cabin and season are matched in Go
// so wildcard precedence stays in one place.
const lookupQuery = `SELECT carrier, market, cabin, percent, valid_from, valid_to
FROM commission_rates
WHERE carrier = $1 OR carrier = '*'`

// PostgresSource resolves rates from the commission_rates table.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a source over db.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Lookup implements domain.CommissionRateSource.
func (s *PostgresSource) Lookup(ctx context.Context, q domain.CommissionQuery) (*domain.CommissionRate, error) {
	rows, err := s.db.QueryContext(ctx, lookupQuery, q.Carrier)
	if err != nil {
		return nil, fmt.Errorf("query commission rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.CommissionRate
	for rows.Next() {
		var (
			r        domain.CommissionRate
			from, to sql.NullTime
		)
		if err := rows.Scan(&r.Carrier, &r.Market, &r.Cabin, &r.Percent, &from, &to); err != nil {
			return nil, fmt.Errorf("scan commission rate: %w", err)
		}
		if from.Valid {
			r.ValidFrom = from.Time
		}
		if to.Valid {
			r.ValidTo = to.Time
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commission rates: %w", err)
	}
	return best(rates, q), nil
}
