/**
 * @description
 * This file defines the core domain models for the assistant-service.
 * These structs represent the main entities used throughout the service's
 * business logic and database interactions.
 *
 * @notes
 * - Money amounts are `decimal.Decimal` (NUMERIC in Postgres) rather than
 *   floats, so ledger arithmetic is exact.
 * - An Account is keyed by email (registered on the website) and bound to a
 *   messaging phone number once the owner verifies over chat.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a user's financial profile. `EmailVerified` is the durable
// verification flag the session gate trusts; the session cache is only an
// optimization over it.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	EmailVerified bool            `json:"email_verified"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Plan is an investment product definition. Immutable reference data;
// names are unique case-insensitively.
type Plan struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	MinInvestment decimal.Decimal `json:"min_investment"`
	DurationDays  int             `json:"duration_days"`
}

// Investment is an instance of a Plan purchased against an Account's balance.
type Investment struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	PlanID         uuid.UUID       `json:"plan_id"`
	PlanName       string          `json:"plan_name"`
	Amount         decimal.Decimal `json:"amount"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	LastCalculated time.Time       `json:"last_calculated"`
	Active         bool            `json:"active"`
}

// Transaction types recorded in the ledger.
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
	TransactionTypeMaturity = "maturity"
)

// TransactionStatusApproved is the status stamped on chat-initiated ledger
// entries; they are applied synchronously, so there is no pending state.
const TransactionStatusApproved = "approved"

// Transaction is one append-only ledger entry. Every deposit or withdrawal
// commits exactly one of these atomically with its balance mutation.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
