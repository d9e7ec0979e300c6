package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dyike/CortexReview/models"
)

var hundred = decimal.NewFromInt(100)

// Stats summarises the whole journal. Rates are rounded to two places.
func (s *Store) Stats(ctx context.Context) (*models.JournalStats, error) {
	var total, approved, scoreSum int64
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(is_setup_valid), 0), COALESCE(SUM(confluence_score), 0)
FROM evaluations
`).Scan(&total, &approved, &scoreSum)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}

	stats := &models.JournalStats{
		Total:        int(total),
		Approved:     int(approved),
		ApprovalRate: ratio(approved, total, hundred),
		AverageScore: ratio(scoreSum, total, decimal.NewFromInt(1)),
	}

	err = s.db.QueryRowContext(ctx, `
SELECT setup_type FROM evaluations
GROUP BY setup_type
ORDER BY COUNT(*) DESC, MAX(rowid) DESC
LIMIT 1
`).Scan(&stats.TopSetupType)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal top setup: %w", err)
	}
	return stats, nil
}

func ratio(num, den int64, scale decimal.Decimal) string {
	if den == 0 {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromInt(num).Mul(scale).Div(decimal.NewFromInt(den)).StringFixed(2)
}
