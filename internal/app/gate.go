/**
 * @description
 * This file implements the session gate: the per-identity verification state
 * machine in front of the command router. A sender is Unverified until they
 * supply an email registered on the website; verification is then recorded
 * durably on the account and the phone number is bound to it.
 *
 * The session cache only short-cuts the phone -> account lookup. Once
 * `email_verified` is durably true, cache expiry must never send the user
 * back through the email prompt.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/knightvest/assistant-service/internal/domain"
	"github.com/knightvest/assistant-service/internal/store"
)

// gateResult is the outcome of pushing one message through the gate. Either
// Account is set (sender verified, route the text as a command) or Reply
// carries the verification prompt/confirmation to send back.
type gateResult struct {
	Account *domain.Account
	Reply   string
}

// gate resolves the sender to a verified account or produces the
// verification-flow reply.
func (s *Service) gate(ctx context.Context, phone, text string) (gateResult, error) {
	// Fast path: cached phone -> email binding.
	if email, err := s.sessions.Get(ctx, phone); err != nil {
		log.Printf("level=warn component=gate msg=\"session cache read failed\" phone=%s err=%v", phone, err)
	} else if email != "" {
		account, err := s.repo.GetAccountByEmail(ctx, email)
		if err == nil && account.EmailVerified {
			return gateResult{Account: account}, nil
		}
		if err != nil && err != store.ErrAccountNotFound {
			return gateResult{}, fmt.Errorf("lookup cached account: %w", err)
		}
		// Stale binding (account deleted or verification revoked); drop it
		// and fall through to the durable lookup.
		if delErr := s.sessions.Delete(ctx, phone); delErr != nil {
			log.Printf("level=warn component=gate msg=\"session cache delete failed\" phone=%s err=%v", phone, delErr)
		}
	}

	// Durable path: the verified flag on the account outlives any cache entry.
	account, err := s.repo.GetAccountByPhone(ctx, phone)
	if err == nil && account.EmailVerified {
		s.cacheSession(ctx, phone, account.Email)
		return gateResult{Account: account}, nil
	}
	if err != nil && err != store.ErrAccountNotFound {
		return gateResult{}, fmt.Errorf("lookup account by phone: %w", err)
	}

	// Unverified sender: ask for an email, or verify the one supplied.
	email := extractEmail(text)
	if email == "" {
		return gateResult{Reply: replyAskEmail}, nil
	}

	account, err = s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == store.ErrAccountNotFound {
			return gateResult{Reply: replyEmailNotRegistered}, nil
		}
		return gateResult{}, fmt.Errorf("lookup account by email: %w", err)
	}

	if err := s.repo.MarkEmailVerified(ctx, account.ID, phone); err != nil {
		return gateResult{}, fmt.Errorf("mark email verified: %w", err)
	}
	s.cacheSession(ctx, phone, account.Email)

	return gateResult{Reply: replyVerified}, nil
}

func (s *Service) cacheSession(ctx context.Context, phone, email string) {
	// Cache writes are best effort; a failure just means the next message
	// pays for a database lookup.
	if err := s.sessions.Set(ctx, phone, email, s.sessionTTL); err != nil {
		log.Printf("level=warn component=gate msg=\"session cache write failed\" phone=%s err=%v", phone, err)
	}
}

// extractEmail returns the first token containing '@', normalized to
// lowercase, or "".
func extractEmail(text string) string {
	for _, token := range strings.Fields(text) {
		if strings.Contains(token, "@") {
			return strings.ToLower(strings.TrimSpace(token))
		}
	}
	return ""
}
