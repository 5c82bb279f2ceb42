package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
	"github.com/knightvest/assistant-service/internal/store"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// ledgerRepoStub is an in-memory store.Repository. Its ledger mutations hold
// one mutex for the whole unit, mirroring the per-account serialization the
// real repository gets from row locks.
type ledgerRepoStub struct {
	store.Repository

	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	plans        []domain.Plan
	investments  []domain.Investment
	transactions []domain.Transaction

	failEmailLookup error
	failPhoneLookup error
	failDeposit     error
}

func newLedgerRepoStub() *ledgerRepoStub {
	return &ledgerRepoStub{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *ledgerRepoStub) addAccount(email, phone string, verified bool, balance decimal.Decimal) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	account := &domain.Account{
		ID:            uuid.New(),
		Email:         email,
		Phone:         phone,
		EmailVerified: verified,
		Balance:       balance,
	}
	r.accounts[account.ID] = account
	return account
}

func (r *ledgerRepoStub) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if r.failEmailLookup != nil {
		return nil, r.failEmailLookup
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (r *ledgerRepoStub) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if r.failPhoneLookup != nil {
		return nil, r.failPhoneLookup
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Phone == phone {
			copied := *account
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (r *ledgerRepoStub) MarkEmailVerified(ctx context.Context, accountID uuid.UUID, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.EmailVerified = true
	account.Phone = phone
	return nil
}

func (r *ledgerRepoStub) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Plan(nil), r.plans...), nil
}

func (r *ledgerRepoStub) ListActiveInvestments(ctx context.Context, accountID uuid.UUID) ([]domain.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []domain.Investment
	for _, inv := range r.investments {
		if inv.AccountID == accountID && inv.Active {
			active = append(active, inv)
		}
	}
	return active, nil
}

func (r *ledgerRepoStub) DepositFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if r.failDeposit != nil {
		return decimal.Zero, r.failDeposit
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return decimal.Zero, store.ErrAccountNotFound
	}
	account.Balance = account.Balance.Add(amount)
	r.appendTransaction(accountID, domain.TransactionTypeDeposit, amount)
	return account.Balance, nil
}

func (r *ledgerRepoStub) WithdrawFunds(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return decimal.Zero, store.ErrAccountNotFound
	}
	if account.Balance.LessThan(amount) {
		return decimal.Zero, store.ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(amount)
	r.appendTransaction(accountID, domain.TransactionTypeWithdraw, amount)
	return account.Balance, nil
}

func (r *ledgerRepoStub) InvestFunds(ctx context.Context, inv *domain.Investment) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[inv.AccountID]
	if !ok {
		return decimal.Zero, store.ErrAccountNotFound
	}
	if account.Balance.LessThan(inv.Amount) {
		return decimal.Zero, store.ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(inv.Amount)
	r.investments = append(r.investments, *inv)
	return account.Balance, nil
}

func (r *ledgerRepoStub) ListMaturedInvestments(ctx context.Context) ([]domain.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var matured []domain.Investment
	for _, inv := range r.investments {
		if inv.Active && !inv.EndDate.After(now) {
			matured = append(matured, inv)
		}
	}
	return matured, nil
}

func (r *ledgerRepoStub) SettleMaturedInvestment(ctx context.Context, investmentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.investments {
		inv := &r.investments[i]
		if inv.ID != investmentID || !inv.Active {
			continue
		}
		account, ok := r.accounts[inv.AccountID]
		if !ok {
			return store.ErrAccountNotFound
		}
		inv.Active = false
		account.Balance = account.Balance.Add(inv.Amount)
		r.appendTransaction(inv.AccountID, domain.TransactionTypeMaturity, inv.Amount)
		return nil
	}
	return store.ErrInvestmentNotFound
}

func (r *ledgerRepoStub) Ping(ctx context.Context) error { return nil }

func (r *ledgerRepoStub) appendTransaction(accountID uuid.UUID, txType string, amount decimal.Decimal) {
	r.transactions = append(r.transactions, domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Status:    domain.TransactionStatusApproved,
		CreatedAt: time.Now(),
	})
}

func (r *ledgerRepoStub) balanceOf(t *testing.T, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		t.Fatalf("account %s not in stub", accountID)
	}
	return account.Balance
}

func (r *ledgerRepoStub) transactionCount(accountID uuid.UUID, txType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, tx := range r.transactions {
		if tx.AccountID == accountID && tx.Type == txType {
			count++
		}
	}
	return count
}

// llmStub records the prompt it was asked to complete.
type llmStub struct {
	mu         sync.Mutex
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (l *llmStub) Complete(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastPrompt = prompt
	l.calls++
	if l.err != nil {
		return "", l.err
	}
	return l.reply, nil
}

type fetcherStub struct {
	content string
	err     error
}

func (f *fetcherStub) Fetch(ctx context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}
