package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS futures_daily_data (
    trade_date    DATE          NOT NULL,
    exchange      VARCHAR(10)   NOT NULL,
    product_code  VARCHAR(10)   NOT NULL,
    contract_code VARCHAR(20)   NOT NULL,
    open_price    DOUBLE PRECISION,
    high_price    DOUBLE PRECISION,
    low_price     DOUBLE PRECISION,
    close_price   DOUBLE PRECISION,
    settle_price  DOUBLE PRECISION,
    volume        BIGINT,
    turnover      DOUBLE PRECISION,
    open_interest BIGINT,
    updated_at    TIMESTAMPTZ   NOT NULL DEFAULT now(),
    PRIMARY KEY (trade_date, exchange, contract_code)
);

CREATE INDEX IF NOT EXISTS idx_daily_product
    ON futures_daily_data (exchange, product_code, trade_date);

CREATE TABLE IF NOT EXISTS continuous_contracts (
    trade_date    DATE          NOT NULL,
    exchange      VARCHAR(10)   NOT NULL,
    product_code  VARCHAR(10)   NOT NULL,
    contract_type VARCHAR(10)   NOT NULL,
    contract_code VARCHAR(20),
    open_price    DOUBLE PRECISION,
    high_price    DOUBLE PRECISION,
    low_price     DOUBLE PRECISION,
    close_price   DOUBLE PRECISION,
    settle_price  DOUBLE PRECISION,
    volume        BIGINT,
    turnover      DOUBLE PRECISION,
    open_interest BIGINT,
    updated_at    TIMESTAMPTZ   NOT NULL DEFAULT now(),
    PRIMARY KEY (trade_date, exchange, product_code, contract_type)
);

CREATE INDEX IF NOT EXISTS idx_continuous_product
    ON continuous_contracts (exchange, product_code, contract_type, trade_date);

CREATE TABLE IF NOT EXISTS coverage_checkpoints (
    exchange           VARCHAR(10) NOT NULL,
    product_code       VARCHAR(10) NOT NULL,
    last_complete_date DATE        NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (exchange, product_code)
);
`

// InitSchema creates the tables and indexes if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
