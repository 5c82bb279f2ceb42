/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL needed for accounts, plans,
 * investments, and the transaction ledger.
 *
 * Ledger mutations lock the account row with `SELECT ... FOR UPDATE` and
 * commit the balance change plus the companion record inside one database
 * transaction. That gives per-account serialization and all-or-nothing
 * durability without any application-side locking.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/shopspring/decimal: Exact NUMERIC arithmetic for balances.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetAccountByEmail retrieves an account by its registered email (case-insensitive).
func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	query := `
		SELECT id, email, COALESCE(phone, ''), email_verified, balance, created_at, updated_at
		FROM accounts
		WHERE lower(btrim(email)) = lower(btrim($1))
	`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&account.ID, &account.Email, &account.Phone, &account.EmailVerified,
		&account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByPhone retrieves an account by the messaging phone number bound
// to it during verification.
func (r *PostgresRepository) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	var account domain.Account
	query := `
		SELECT id, email, COALESCE(phone, ''), email_verified, balance, created_at, updated_at
		FROM accounts
		WHERE phone = $1
	`
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&account.ID, &account.Email, &account.Phone, &account.EmailVerified,
		&account.Balance, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// MarkEmailVerified durably records verification and binds the phone number.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, accountID uuid.UUID, phone string) error {
	query := `UPDATE accounts SET email_verified = true, phone = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, strings.TrimSpace(phone), accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListPlans retrieves all investment plans.
func (r *PostgresRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, min_investment, duration_days FROM plans ORDER BY min_investment ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var plan domain.Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.MinInvestment, &plan.DurationDays); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// ListActiveInvestments retrieves an account's active investments, newest first.
func (r *PostgresRepository) ListActiveInvestments(ctx context.Context, accountID uuid.UUID) ([]domain.Investment, error) {
	query := `
		SELECT i.id, i.account_id, i.plan_id, p.name, i.amount, i.start_date, i.end_date, i.last_calculated, i.active
		FROM investments i
		JOIN plans p ON p.id = i.plan_id
		WHERE i.account_id = $1 AND i.active = true
		ORDER BY i.start_date DESC
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.PlanID, &inv.PlanName,
			&inv.Amount, &inv.StartDate, &inv.EndDate, &inv.LastCalculated, &inv.Active,
		); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// DepositFunds atomically credits the balance and appends the deposit ledger
// entry, returning the new balance.
func (r *PostgresRepository) DepositFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	// FOR UPDATE locks the row so concurrent ledger operations on the same
	// account serialize here.
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	newBalance := balance.Add(amount)
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, newBalance, accountID); err != nil {
		return decimal.Zero, err
	}
	if err := insertTransaction(ctx, tx, accountID, domain.TransactionTypeDeposit, amount); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// WithdrawFunds atomically debits the balance and appends the withdraw ledger
// entry. The balance check happens under the row lock, so the balance can
// never go negative regardless of interleaving.
func (r *PostgresRepository) WithdrawFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	if balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	newBalance := balance.Sub(amount)
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, newBalance, accountID); err != nil {
		return decimal.Zero, err
	}
	if err := insertTransaction(ctx, tx, accountID, domain.TransactionTypeWithdraw, amount); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// InvestFunds atomically debits the balance and creates the investment record.
// The caller validates the plan minimum; the balance check is authoritative
// here under the row lock.
func (r *PostgresRepository) InvestFunds(ctx context.Context, inv *domain.Investment) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, inv.AccountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	if balance.LessThan(inv.Amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	newBalance := balance.Sub(inv.Amount)
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, newBalance, inv.AccountID); err != nil {
		return decimal.Zero, err
	}

	query := `
		INSERT INTO investments (id, account_id, plan_id, amount, start_date, end_date, last_calculated, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, query,
		inv.ID, inv.AccountID, inv.PlanID, inv.Amount,
		inv.StartDate, inv.EndDate, inv.LastCalculated, inv.Active,
	); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// ListMaturedInvestments returns active investments whose end date has passed.
func (r *PostgresRepository) ListMaturedInvestments(ctx context.Context) ([]domain.Investment, error) {
	query := `
		SELECT i.id, i.account_id, i.plan_id, p.name, i.amount, i.start_date, i.end_date, i.last_calculated, i.active
		FROM investments i
		JOIN plans p ON p.id = i.plan_id
		WHERE i.active = true AND i.end_date <= NOW()
		ORDER BY i.end_date ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.PlanID, &inv.PlanName,
			&inv.Amount, &inv.StartDate, &inv.EndDate, &inv.LastCalculated, &inv.Active,
		); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// SettleMaturedInvestment deactivates a matured investment and credits the
// principal back to the account, recording a maturity ledger entry. The
// deactivation is guarded by `active = true` so a job that runs twice cannot
// pay out twice.
func (r *PostgresRepository) SettleMaturedInvestment(ctx context.Context, investmentID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var accountID uuid.UUID
	var amount decimal.Decimal
	query := `
		UPDATE investments
		SET active = false, last_calculated = NOW()
		WHERE id = $1 AND active = true AND end_date <= NOW()
		RETURNING account_id, amount
	`
	err = tx.QueryRow(ctx, query, investmentID).Scan(&accountID, &amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrInvestmentNotFound
		}
		return err
	}

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance.Add(amount), accountID); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, accountID, domain.TransactionTypeMaturity, amount); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Ping checks database connectivity for the readiness probe.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.Ping(ctx)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, txType string, amount decimal.Decimal) error {
	query := `
		INSERT INTO transactions (id, account_id, type, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := tx.Exec(ctx, query, uuid.New(), accountID, txType, amount, domain.TransactionStatusApproved)
	return err
}
