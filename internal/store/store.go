package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/futures-data/internal/model"
)

const upsertDailySQL = `
	INSERT INTO futures_daily_data
		(trade_date, exchange, product_code, contract_code, open_price,
		 high_price, low_price, close_price, settle_price, volume,
		 turnover, open_interest, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
	ON CONFLICT (trade_date, exchange, contract_code) DO UPDATE SET
		product_code  = EXCLUDED.product_code,
		open_price    = EXCLUDED.open_price,
		high_price    = EXCLUDED.high_price,
		low_price     = EXCLUDED.low_price,
		close_price   = EXCLUDED.close_price,
		settle_price  = EXCLUDED.settle_price,
		volume        = EXCLUDED.volume,
		turnover      = EXCLUDED.turnover,
		open_interest = EXCLUDED.open_interest,
		updated_at    = now()
`

const upsertContinuousSQL = `
	INSERT INTO continuous_contracts
		(trade_date, exchange, product_code, contract_type, contract_code,
		 open_price, high_price, low_price, close_price, settle_price,
		 volume, turnover, open_interest, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
	ON CONFLICT (trade_date, exchange, product_code, contract_type) DO UPDATE SET
		contract_code = EXCLUDED.contract_code,
		open_price    = EXCLUDED.open_price,
		high_price    = EXCLUDED.high_price,
		low_price     = EXCLUDED.low_price,
		close_price   = EXCLUDED.close_price,
		settle_price  = EXCLUDED.settle_price,
		volume        = EXCLUDED.volume,
		turnover      = EXCLUDED.turnover,
		open_interest = EXCLUDED.open_interest,
		updated_at    = now()
`

const upsertCheckpointSQL = `
	INSERT INTO coverage_checkpoints (exchange, product_code, last_complete_date, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (exchange, product_code) DO UPDATE SET
		last_complete_date = EXCLUDED.last_complete_date,
		updated_at         = now()
`

// Store wraps the connection pool with the pipeline's persistence
// operations.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// UpsertDailyBars writes bars outside of a date commit (the CSV bulk-import
// path). Rows go through pgx.Batch in one round trip.
func (s *Store) UpsertDailyBars(ctx context.Context, bars []model.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range bars {
		queueDailyUpsert(batch, b)
	}
	return s.sendBatch(ctx, batch, len(bars))
}

// ExistingBars returns the stored daily rows for an exchange/product over
// an inclusive date range, keyed for write classification.
func (s *Store) ExistingBars(ctx context.Context, ex model.Exchange, product string, start, end model.Date) (map[model.BarKey]model.DailyBar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_date, exchange, product_code, contract_code,
		       open_price, high_price, low_price, close_price, settle_price,
		       volume, turnover, open_interest
		FROM futures_daily_data
		WHERE exchange = $1 AND product_code = $2
		  AND trade_date BETWEEN $3 AND $4
	`, string(ex), product, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("query existing bars: %w", err)
	}
	defer rows.Close()

	out := make(map[model.BarKey]model.DailyBar)
	for rows.Next() {
		b, err := scanDailyBar(rows)
		if err != nil {
			return nil, err
		}
		out[b.Key()] = b
	}
	return out, rows.Err()
}

// DailyBars returns stored daily rows ordered by (trade_date, contract).
func (s *Store) DailyBars(ctx context.Context, ex model.Exchange, product string, start, end model.Date) ([]model.DailyBar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_date, exchange, product_code, contract_code,
		       open_price, high_price, low_price, close_price, settle_price,
		       volume, turnover, open_interest
		FROM futures_daily_data
		WHERE exchange = $1 AND product_code = $2
		  AND trade_date BETWEEN $3 AND $4
		ORDER BY trade_date, contract_code
	`, string(ex), product, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	var out []model.DailyBar
	for rows.Next() {
		b, err := scanDailyBar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ContinuousBars returns stored continuous rows for one series, ordered by
// date, for export and analysis queries.
func (s *Store) ContinuousBars(ctx context.Context, ex model.Exchange, product string, typ model.ContractType, start, end model.Date) ([]model.ContinuousBar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_date, exchange, product_code, contract_type, contract_code,
		       open_price, high_price, low_price, close_price, settle_price,
		       volume, turnover, open_interest
		FROM continuous_contracts
		WHERE exchange = $1 AND product_code = $2 AND contract_type = $3
		  AND trade_date BETWEEN $4 AND $5
		ORDER BY trade_date
	`, string(ex), product, string(typ), start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("query continuous bars: %w", err)
	}
	defer rows.Close()

	var out []model.ContinuousBar
	for rows.Next() {
		var (
			b        model.ContinuousBar
			date     time.Time
			contract *string
		)
		if err := rows.Scan(&date, &b.Exchange, &b.ProductCode, &b.ContractType, &contract,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Settle,
			&b.Volume, &b.Turnover, &b.OpenInterest); err != nil {
			return nil, fmt.Errorf("scan continuous bar: %w", err)
		}
		b.TradeDate = model.DateOf(date)
		if contract != nil {
			b.ContractCode = *contract
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Checkpoints returns every coverage checkpoint recorded for an exchange,
// keyed by product code. Products never committed have no entry.
func (s *Store) Checkpoints(ctx context.Context, ex model.Exchange) (map[string]model.CoverageCheckpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_code, last_complete_date FROM coverage_checkpoints
		WHERE exchange = $1
	`, string(ex))
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.CoverageCheckpoint)
	for rows.Next() {
		var (
			product string
			date    time.Time
		)
		if err := rows.Scan(&product, &date); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out[product] = model.CoverageCheckpoint{
			Exchange:         ex,
			ProductCode:      product,
			LastCompleteDate: model.DateOf(date),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoints: %w", err)
	}
	return out, nil
}

// PrevMainContract returns the main contract code selected on the latest
// trading date before d, or "" if the product has no history yet.
func (s *Store) PrevMainContract(ctx context.Context, ex model.Exchange, product string, d model.Date) (string, error) {
	var code string
	err := s.pool.QueryRow(ctx, `
		SELECT contract_code FROM continuous_contracts
		WHERE exchange = $1 AND product_code = $2 AND contract_type = $3
		  AND trade_date < $4
		ORDER BY trade_date DESC
		LIMIT 1
	`, string(ex), product, string(model.MainContract), d.Time()).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query previous main contract: %w", err)
	}
	return code, nil
}

// CommitDate persists one completed date atomically: changed daily bars,
// derived continuous bars, and the checkpoint advance all commit or roll
// back together.
func (s *Store) CommitDate(ctx context.Context, cp model.CoverageCheckpoint, bars []model.DailyBar, continuous []model.ContinuousBar) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range bars {
		queueDailyUpsert(batch, b)
	}
	for _, b := range continuous {
		queueContinuousUpsert(batch, b)
	}
	batch.Queue(upsertCheckpointSQL, string(cp.Exchange), cp.ProductCode, cp.LastCompleteDate.Time())

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("commit date %s: %w", cp.LastCompleteDate, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("commit date %s: %w", cp.LastCompleteDate, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit date %s: %w", cp.LastCompleteDate, err)
	}

	s.logger.Debug("date committed",
		"exchange", cp.Exchange,
		"product", cp.ProductCode,
		"date", cp.LastCompleteDate.String(),
		"bars", len(bars),
		"continuous", len(continuous),
	)
	return nil
}

func queueDailyUpsert(batch *pgx.Batch, b model.DailyBar) {
	batch.Queue(upsertDailySQL,
		b.TradeDate.Time(), string(b.Exchange), b.ProductCode, b.ContractCode,
		b.Open, b.High, b.Low, b.Close, b.Settle,
		b.Volume, b.Turnover, b.OpenInterest)
}

func queueContinuousUpsert(batch *pgx.Batch, b model.ContinuousBar) {
	batch.Queue(upsertContinuousSQL,
		b.TradeDate.Time(), string(b.Exchange), b.ProductCode, string(b.ContractType),
		b.ContractCode,
		b.Open, b.High, b.Low, b.Close, b.Settle,
		b.Volume, b.Turnover, b.OpenInterest)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	results := s.pool.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch upsert: %w", err)
		}
	}
	return results.Close()
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyBar(r rowScanner) (model.DailyBar, error) {
	var (
		b    model.DailyBar
		date time.Time
	)
	if err := r.Scan(&date, &b.Exchange, &b.ProductCode, &b.ContractCode,
		&b.Open, &b.High, &b.Low, &b.Close, &b.Settle,
		&b.Volume, &b.Turnover, &b.OpenInterest); err != nil {
		return b, fmt.Errorf("scan daily bar: %w", err)
	}
	b.TradeDate = model.DateOf(date)
	return b, nil
}
