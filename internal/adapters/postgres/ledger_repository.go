package postgres

import (
	"context"
	"errors"
	"fmt"

	"fxtransfer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func (r *LedgerRepository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `
        select id, account_number, currency, balance, client_id
        from accounts
        where id = $1;
    `

	var account domain.Account
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&account.ID,
		&account.Number,
		&account.Currency,
		&account.Balance,
		&account.ClientID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to select account %d: %w", id, err)
	}

	return &account, nil
}

// ApplyTransfer applies both balance mutations and the Transaction insert in
// one transaction. Both account rows are locked first, in ascending ID order
// so two concurrent transfers touching the same accounts cannot deadlock;
// the row locks are the sole serialization of the read-modify-write.
func (r *LedgerRepository) ApplyTransfer(ctx context.Context, transfer domain.Transfer) (*domain.Transaction, error) {
	txn := domain.Transaction{
		SourceAccountID:      transfer.SourceAccountID,
		DestinationAccountID: transfer.DestinationAccountID,
		Amount:               transfer.Amount,
		Currency:             transfer.Currency,
		Description:          transfer.Description,
		ExchangeRate:         transfer.ExchangeRate,
	}

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		firstID, secondID := transfer.SourceAccountID, transfer.DestinationAccountID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		for _, id := range []int64{firstID, secondID} {
			var locked int64
			if err := tx.QueryRow(ctx, `select id from accounts where id = $1 for update`, id).Scan(&locked); err != nil {
				return fmt.Errorf("failed to lock account %d: %w", id, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`update accounts set balance = balance - $1 where id = $2`,
			transfer.SourceAmount, transfer.SourceAccountID,
		); err != nil {
			return fmt.Errorf("failed to debit account %d: %w", transfer.SourceAccountID, err)
		}

		if _, err := tx.Exec(ctx,
			`update accounts set balance = balance + $1 where id = $2`,
			transfer.DestinationAmount, transfer.DestinationAccountID,
		); err != nil {
			return fmt.Errorf("failed to credit account %d: %w", transfer.DestinationAccountID, err)
		}

		const insertQ = `
            insert into transactions
                (source_account_id, destination_account_id, amount, currency, description, exchange_rate, created_at)
            values ($1, $2, $3, $4, nullif($5, ''), $6, now())
            returning id, created_at;
        `
		if err := tx.QueryRow(ctx, insertQ,
			transfer.SourceAccountID,
			transfer.DestinationAccountID,
			transfer.Amount,
			transfer.Currency,
			transfer.Description,
			transfer.ExchangeRate,
		).Scan(&txn.ID, &txn.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}
