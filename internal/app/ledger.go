/**
 * @description
 * This file contains the ledger operations: deposit, withdraw, and invest.
 * Validation happens here; the repository executes each operation's balance
 * mutation and companion record as one atomic unit, holding a per-account
 * row lock, so none of these can partially apply or race with a concurrent
 * operation on the same account.
 */

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
	"github.com/knightvest/assistant-service/internal/store"
)

// Deposit credits the account and returns the new balance.
func (s *Service) Deposit(ctx context.Context, account *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	newBalance, err := s.repo.DepositFunds(ctx, account.ID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit funds: %w", err)
	}
	return newBalance, nil
}

// Withdraw debits the account and returns the new balance. The repository
// verifies sufficient balance under the account lock.
func (s *Service) Withdraw(ctx context.Context, account *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	newBalance, err := s.repo.WithdrawFunds(ctx, account.ID, amount)
	if err != nil {
		if err == store.ErrInsufficientFunds {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("withdraw funds: %w", err)
	}
	return newBalance, nil
}

// Invest resolves the plan by case-insensitive name, validates the plan
// minimum, and atomically creates the investment while debiting the balance.
func (s *Service) Invest(ctx context.Context, account *domain.Account, planToken string, amount decimal.Decimal) (*domain.Investment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	var plan *domain.Plan
	for i := range plans {
		if strings.EqualFold(plans[i].Name, planToken) {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return nil, store.ErrPlanNotFound
	}

	if amount.LessThan(plan.MinInvestment) {
		return nil, &BelowMinimumError{Plan: *plan}
	}

	start := s.now()
	inv := &domain.Investment{
		ID:             uuid.New(),
		AccountID:      account.ID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Amount:         amount,
		StartDate:      start,
		EndDate:        start.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		LastCalculated: start,
		Active:         true,
	}

	if _, err := s.repo.InvestFunds(ctx, inv); err != nil {
		if err == store.ErrInsufficientFunds {
			return nil, err
		}
		return nil, fmt.Errorf("invest funds: %w", err)
	}
	return inv, nil
}
