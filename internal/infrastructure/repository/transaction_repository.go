package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
)

// transactionColumns is the header ListAll produces, matching the canonical
// input column names so the table feeds normalization directly.
var transactionColumns = []string{
	transaction.ColEntityID,
	transaction.ColDatetime,
	transaction.ColAmount,
	transaction.ColCategory,
	transaction.ColCity,
	transaction.ColState,
	transaction.ColCountry,
	transaction.ColPaymentMethod,
	transaction.ColChannel,
	transaction.ColCardID,
	transaction.ColDeviceID,
	transaction.ColIPAddress,
	transaction.ColInstallments,
	transaction.ColDeclined,
	transaction.ColChargeback,
	transaction.ColCVVPresent,
	transaction.ColCardNotPresent,
	transaction.ColAVSMismatch,
	transaction.ColPINFailed,
	transaction.ColCreditLimit,
	transaction.ColAttemptedAmount,
	transaction.ColShippingAddress,
	transaction.ColAccountOpenDate,
	transaction.ColTimezone,
	transaction.ColLabel,
}

// Cells come back as text so the engine sees exactly what a CSV feed would
// deliver; NULLs become blank cells and get defaulted downstream. The id
// ordering is the input ordinal.
const listTransactionsQuery = `
	SELECT
		COALESCE(entity_id, ''),
		COALESCE(to_char(datetime AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'), ''),
		COALESCE(amount::text, ''),
		COALESCE(merchant_category, ''),
		COALESCE(merchant_city, ''),
		COALESCE(merchant_state, ''),
		COALESCE(merchant_country, ''),
		COALESCE(payment_method, ''),
		COALESCE(channel, ''),
		COALESCE(card_id, ''),
		COALESCE(device_id, ''),
		COALESCE(ip_address, ''),
		COALESCE(installments::text, ''),
		COALESCE(declined::text, ''),
		COALESCE(chargeback::text, ''),
		COALESCE(cvv_present::text, ''),
		COALESCE(card_not_present::text, ''),
		COALESCE(avs_mismatch::text, ''),
		COALESCE(pin_failed::text, ''),
		COALESCE(credit_limit::text, ''),
		COALESCE(attempted_amount::text, ''),
		COALESCE(shipping_address, ''),
		COALESCE(account_open_date::text, ''),
		COALESCE(timezone, ''),
		COALESCE(label::text, '')
	FROM transactions
	ORDER BY id
`

const insertTransactionQuery = `
	INSERT INTO transactions (
		entity_id, datetime, amount, merchant_category, merchant_city,
		merchant_state, merchant_country, payment_method, channel, card_id,
		device_id, ip_address, installments, declined, chargeback,
		cvv_present, card_not_present, avs_mismatch, pin_failed,
		credit_limit, attempted_amount, shipping_address, account_open_date,
		timezone, label
	) VALUES (
		NULLIF($1, ''), NULLIF($2, '')::timestamptz, NULLIF($3, '')::numeric,
		NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
		NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
		NULLIF($12, ''), NULLIF($13, '')::integer, NULLIF($14, '')::smallint,
		NULLIF($15, '')::smallint, NULLIF($16, '')::smallint,
		NULLIF($17, '')::smallint, NULLIF($18, '')::smallint,
		NULLIF($19, '')::smallint, NULLIF($20, '')::numeric,
		NULLIF($21, '')::numeric, NULLIF($22, ''), NULLIF($23, '')::date,
		NULLIF($24, ''), NULLIF($25, '')::smallint
	)
`

// transactionRepository implements TransactionRepository using PostgreSQL
type transactionRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(pool *pgxpool.Pool, logger *zap.Logger) TransactionRepository {
	return &transactionRepository{pool: pool, logger: logger}
}

// ListAll loads the whole transactions table as raw string cells.
func (r *transactionRepository) ListAll(ctx context.Context) (*dataset.Table, error) {
	rows, err := r.pool.Query(ctx, listTransactionsQuery)
	if err != nil {
		if IsUndefinedTable(err) {
			return nil, fmt.Errorf("transactions table does not exist, run migrations first: %w", err)
		}
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	table := dataset.NewTable(transactionColumns)
	cells := make([]string, len(transactionColumns))
	dests := make([]interface{}, len(transactionColumns))
	for i := range cells {
		dests[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		table.AppendRow(cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	r.logger.Debug("loaded transactions", zap.Int("rows", table.Len()))
	return table, nil
}

// Count returns the number of stored transactions.
func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// InsertBatch stores rows in table order. Loads run inside one transaction
// so a failed batch leaves nothing behind.
func (r *transactionRepository) InsertBatch(ctx context.Context, table *dataset.Table) (int64, error) {
	if table == nil || table.Len() == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	args := make([]interface{}, len(transactionColumns))
	var inserted int64
	for row := 0; row < table.Len(); row++ {
		for i, col := range transactionColumns {
			cell, _ := table.Cell(row, col)
			args[i] = cell
		}
		if _, err := tx.Exec(ctx, insertTransactionQuery, args...); err != nil {
			return 0, fmt.Errorf("failed to insert transaction row %d: %w", row, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction batch: %w", err)
	}

	r.logger.Debug("inserted transactions", zap.Int64("rows", inserted))
	return inserted, nil
}
