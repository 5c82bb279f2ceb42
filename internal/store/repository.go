/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the assistant-service. The
 * business logic in `internal/app` depends only on this interface, so tests
 * run against in-memory stubs and production runs against PostgreSQL.
 *
 * @notes
 * - The ledger mutations (DepositFunds, WithdrawFunds, InvestFunds,
 *   SettleMaturedInvestment) are deliberately exposed as single atomic units:
 *   each one commits the balance change and its companion record in one
 *   database transaction, holding a row lock on the account so concurrent
 *   operations on the same account serialize.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvestmentNotFound = errors.New("investment not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account lookup and verification
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error)
	// MarkEmailVerified durably records verification and binds the messaging
	// phone number to the account.
	MarkEmailVerified(ctx context.Context, accountID uuid.UUID, phone string) error

	// Reference data
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	ListActiveInvestments(ctx context.Context, accountID uuid.UUID) ([]domain.Investment, error)

	// Atomic ledger units. Each commits its balance mutation together with
	// exactly one companion record, or not at all.
	DepositFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	WithdrawFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	InvestFunds(ctx context.Context, inv *domain.Investment) (decimal.Decimal, error)

	// Maturity worker units
	ListMaturedInvestments(ctx context.Context) ([]domain.Investment, error)
	SettleMaturedInvestment(ctx context.Context, investmentID uuid.UUID) error

	// Ping reports whether the backing store is reachable (readiness probe).
	Ping(ctx context.Context) error
}
