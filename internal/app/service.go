/**
 * @description
 * This file contains the core message-handling logic for the
 * assistant-service. The `Service` struct receives each inbound chat message,
 * pushes the sender through the verification gate, routes verified text as a
 * financial command, and falls back to the generative assistant for anything
 * it cannot parse.
 *
 * Error mapping follows a fixed taxonomy: validation and business errors get
 * specific reply text; infrastructure failures get a generic "try again
 * later" and the detail stays in the logs.
 *
 * @dependencies
 * - internal/domain, internal/store, internal/session: Domain models, data
 *   access, and the verification-session cache.
 */

package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/knightvest/assistant-service/internal/domain"
	"github.com/knightvest/assistant-service/internal/session"
	"github.com/knightvest/assistant-service/internal/store"
)

// DefaultSessionTTL is how long a phone -> email binding stays cached.
const DefaultSessionTTL = 600 * time.Second

// Service provides the core business logic for the chat assistant.
type Service struct {
	repo       store.Repository
	sessions   session.Store
	llm        LanguageModel
	fetcher    ContentFetcher
	siteURL    string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates a new assistant service instance. The fetcher may be
// nil; the fallback prompt then carries no website content.
func NewService(repo store.Repository, sessions session.Store, llm LanguageModel, fetcher ContentFetcher, siteURL string) *Service {
	return &Service{
		repo:       repo,
		sessions:   sessions,
		llm:        llm,
		fetcher:    fetcher,
		siteURL:    siteURL,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
}

// SetSessionTTL overrides the session cache TTL.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// SetClock overrides the time source. Tests use this to pin investment dates.
func (s *Service) SetClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// It never returns an empty reply for non-empty input; infrastructure
// failures map to a generic reply after logging.
func (s *Service) HandleMessage(ctx context.Context, phone, text string) string {
	text = strings.TrimSpace(text)

	gated, err := s.gate(ctx, phone, text)
	if err != nil {
		log.Printf("level=error component=service msg=\"verification gate failed\" phone=%s err=%v", phone, err)
		return replyTryAgainLater
	}
	if gated.Reply != "" {
		return gated.Reply
	}

	cmd, err := ParseCommand(text)
	if err != nil {
		// Only ErrInvalidAmount: a command keyword matched with a bad amount.
		// This short-circuits; it must not reach the fallback assistant.
		return replyInvalidAmount
	}

	switch c := cmd.(type) {
	case domain.DepositCommand:
		newBalance, err := s.Deposit(ctx, gated.Account, c.Amount)
		if err != nil {
			return s.commandErrorReply(phone, "deposit", "", err)
		}
		return replyDeposited(c.Amount, newBalance)

	case domain.WithdrawCommand:
		newBalance, err := s.Withdraw(ctx, gated.Account, c.Amount)
		if err != nil {
			return s.commandErrorReply(phone, "withdraw", "", err)
		}
		return replyWithdrawn(c.Amount, newBalance)

	case domain.InvestCommand:
		inv, err := s.Invest(ctx, gated.Account, c.PlanToken, c.Amount)
		if err != nil {
			return s.commandErrorReply(phone, "invest", c.PlanToken, err)
		}
		return replyInvested(inv)

	case domain.UnrecognizedCommand:
		answer, err := s.answerWithAssistant(ctx, gated.Account, c.Text)
		if err != nil {
			log.Printf("level=error component=service msg=\"assistant fallback failed\" phone=%s err=%v", phone, err)
			return replyTryAgainLater
		}
		return answer
	}

	return replyTryAgainLater
}

// commandErrorReply maps a ledger error to its user-facing reply text.
func (s *Service) commandErrorReply(phone, operation, planToken string, err error) string {
	var belowMin *BelowMinimumError
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return replyInvalidAmount
	case errors.As(err, &belowMin):
		return replyBelowMinimum(belowMin.Plan)
	case errors.Is(err, store.ErrInsufficientFunds):
		return replyInsufficientBalance
	case errors.Is(err, store.ErrPlanNotFound):
		return replyPlanNotFound(planToken)
	default:
		log.Printf("level=error component=service msg=\"ledger operation failed\" phone=%s op=%s err=%v", phone, operation, err)
		return replyTryAgainLater
	}
}
