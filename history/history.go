// Package history loads per-store daily visitor and sales history from
// Postgres and persists issued predictions. When a store has too little
// pre-aggregated history, raw journal rows are aggregated on the fly and
// written back.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storecast/dailyseries"
)

// ErrNoHistory occurs when a user has no usable history in either the
// aggregated or the journal table.
var ErrNoHistory = errors.New("no history for user")

// Options configures a Store.
type Options struct {
	// PageSize bounds each aggregated-history read.
	PageSize int

	// MinAggregatedRows is the aggregated row count below which the
	// journal fallback kicks in.
	MinAggregatedRows int

	Logger zerolog.Logger
}

func NewDefaultOptions() *Options {
	return &Options{
		PageSize:          1000,
		MinAggregatedRows: 30,
		Logger:            zerolog.Nop(),
	}
}

// Store reads and writes forecast history tables.
type Store struct {
	db  *sqlx.DB
	opt *Options
}

func NewStore(db *sqlx.DB, opt *Options) *Store {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.PageSize <= 0 {
		opt.PageSize = 1000
	}
	return &Store{db: db, opt: opt}
}

// DailyTotal is one day's aggregated visitors and sales.
type DailyTotal struct {
	Date         time.Time `db:"date"`
	VisitorCount float64   `db:"visitor_count"`
	SalesAmount  float64   `db:"sales_amount"`
}

// History returns the user's daily series, oldest first. When fewer than
// MinAggregatedRows aggregated rows exist, the journal table is aggregated
// instead and the result is written back best effort.
func (s *Store) History(ctx context.Context, userID string) (*dailyseries.Series, error) {
	rows, err := s.aggregated(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading aggregated history, %w", err)
	}

	if len(rows) < s.opt.MinAggregatedRows {
		journalRows, err := s.fromJournal(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("aggregating journal history, %w", err)
		}
		if len(journalRows) > len(rows) {
			s.writeBack(ctx, userID, journalRows)
			rows = journalRows
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w, user %s", ErrNoHistory, userID)
	}

	dates := make([]time.Time, len(rows))
	visitors := make([]float64, len(rows))
	sales := make([]float64, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
		visitors[i] = r.VisitorCount
		sales[i] = r.SalesAmount
	}
	series, err := dailyseries.New(dates, visitors, sales)
	if err != nil {
		return nil, fmt.Errorf("building series for user %s, %w", userID, err)
	}
	return series, nil
}

func (s *Store) aggregated(ctx context.Context, userID string) ([]DailyTotal, error) {
	var all []DailyTotal
	for offset := 0; ; offset += s.opt.PageSize {
		var page []DailyTotal
		err := s.db.SelectContext(ctx, &page,
			`SELECT date, visitor_count, sales_amount
			 FROM daily_aggregated
			 WHERE user_id = $1
			 ORDER BY date
			 LIMIT $2 OFFSET $3`,
			userID, s.opt.PageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.opt.PageSize {
			return all, nil
		}
	}
}

// JournalEntry is one raw receipt line from the journal table.
type JournalEntry struct {
	Date      time.Time `db:"sales_date"`
	ReceiptNo string    `db:"receipt_no"`
	Subtotal  float64   `db:"subtotal"`
	Tax       float64   `db:"tax"`
}

func (s *Store) fromJournal(ctx context.Context, userID string) ([]DailyTotal, error) {
	var entries []JournalEntry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT sales_date, receipt_no, subtotal, tax
		 FROM journal_data
		 WHERE user_id = $1
		 ORDER BY sales_date`,
		userID)
	if err != nil {
		return nil, err
	}
	return AggregateJournal(entries), nil
}

// AggregateJournal rolls raw receipt lines up to daily totals: visitors
// count distinct receipt numbers per day, sales sum subtotal plus tax.
// Output is ordered oldest first.
func AggregateJournal(entries []JournalEntry) []DailyTotal {
	type dayAgg struct {
		receipts map[string]struct{}
		sales    float64
	}
	days := make(map[time.Time]*dayAgg)
	for _, e := range entries {
		day := dailyseries.Midnight(e.Date)
		agg, ok := days[day]
		if !ok {
			agg = &dayAgg{receipts: make(map[string]struct{})}
			days[day] = agg
		}
		agg.receipts[e.ReceiptNo] = struct{}{}
		agg.sales += e.Subtotal + e.Tax
	}

	rows := make([]DailyTotal, 0, len(days))
	for day, agg := range days {
		rows = append(rows, DailyTotal{
			Date:         day,
			VisitorCount: float64(len(agg.receipts)),
			SalesAmount:  agg.sales,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// writeBack upserts journal-derived aggregates so the next load takes the
// fast path. Failures are logged, never fatal.
func (s *Store) writeBack(ctx context.Context, userID string, rows []DailyTotal) {
	for _, r := range rows {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO daily_aggregated (user_id, date, visitor_count, sales_amount)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, date)
			 DO UPDATE SET visitor_count = EXCLUDED.visitor_count,
			               sales_amount = EXCLUDED.sales_amount`,
			userID, r.Date, r.VisitorCount, r.SalesAmount)
		if err != nil {
			s.opt.Logger.Warn().Err(err).
				Str("user_id", userID).
				Msg("failed to write back journal aggregates")
			return
		}
	}
}

// PredictionRecord is an issued forecast persisted for later accuracy
// review.
type PredictionRecord struct {
	UserID       string    `db:"user_id"`
	TargetDate   time.Time `db:"target_date"`
	VisitorCount float64   `db:"visitor_count"`
	SalesAmount  float64   `db:"sales_amount"`
	Confidence   float64   `db:"confidence"`
	ModelVersion string    `db:"model_version"`
}

// SavePrediction stores an issued prediction.
func (s *Store) SavePrediction(ctx context.Context, rec PredictionRecord) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO predictions
		   (user_id, target_date, visitor_count, sales_amount, confidence, model_version)
		 VALUES
		   (:user_id, :target_date, :visitor_count, :sales_amount, :confidence, :model_version)`,
		rec)
	if err != nil {
		return fmt.Errorf("saving prediction for user %s, %w", rec.UserID, err)
	}
	return nil
}
