/**
 * @description
 * This file implements the generative fallback: when no command matches, the
 * user's text is answered by the language-model collaborator, grounded with
 * a snapshot of the account, its active investments, and the website's
 * content.
 *
 * The website fetch is best effort. If it fails, the prompt simply carries
 * no site content; the user still gets an answer.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/knightvest/assistant-service/internal/domain"
)

// LanguageModel is the generative-text collaborator contract.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// ContentFetcher retrieves auxiliary website content used to ground the
// assistant's answers.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	// siteContentLimit bounds how much fetched website content goes into the
	// prompt.
	siteContentLimit = 3000
	// fallbackMaxOutputTokens bounds the model's reply length.
	fallbackMaxOutputTokens = 500
)

// answerWithAssistant builds the grounded prompt and asks the language model.
func (s *Service) answerWithAssistant(ctx context.Context, account *domain.Account, text string) (string, error) {
	investments, err := s.repo.ListActiveInvestments(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("list active investments: %w", err)
	}

	siteContent := ""
	if s.fetcher != nil && s.siteURL != "" {
		content, err := s.fetcher.Fetch(ctx, s.siteURL)
		if err != nil {
			log.Printf("level=warn component=fallback msg=\"site content fetch failed\" err=%v", err)
		} else {
			siteContent = truncate(content, siteContentLimit)
		}
	}

	investmentsJSON, err := json.Marshal(investments)
	if err != nil {
		return "", fmt.Errorf("encode investments: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString("You are the official AI assistant for the website.\n")
	fmt.Fprintf(&prompt, "User email: %s\n", account.Email)
	fmt.Fprintf(&prompt, "User balance: %s\n", account.Balance.String())
	fmt.Fprintf(&prompt, "User investments: %s\n", investmentsJSON)
	fmt.Fprintf(&prompt, "User message: %q\n\n", text)
	fmt.Fprintf(&prompt, "Website content:\n%s\n\n", siteContent)
	prompt.WriteString("Respond clearly and helpfully.\n")

	answer, err := s.llm.Complete(ctx, prompt.String(), fallbackMaxOutputTokens)
	if err != nil {
		return "", fmt.Errorf("language model completion: %w", err)
	}
	return answer, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
