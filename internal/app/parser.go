/**
 * @description
 * This file implements the command router: a small tokenizer that turns a
 * verified user's free text into one of the tagged command variants in
 * `internal/domain`. Dispatch is by leading keyword, case-insensitive, and
 * the variants are mutually exclusive by construction.
 *
 * A keyword match with an unparsable or negative amount is an InvalidAmount
 * error, not a fall-through: "deposit abc" must produce an error reply, never
 * reach the generative fallback.
 */

package app

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
)

// ParseCommand tokenizes trimmed message text into a Command. It returns
// ErrInvalidAmount when a command keyword matched but its amount did not
// parse as a non-negative number.
func ParseCommand(text string) (domain.Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return domain.UnrecognizedCommand{Text: text}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "deposit":
		if len(fields) < 2 {
			return domain.UnrecognizedCommand{Text: text}, nil
		}
		amount, err := parseAmount(fields[1])
		if err != nil {
			return nil, err
		}
		return domain.DepositCommand{Amount: amount}, nil

	case "withdraw":
		if len(fields) < 2 {
			return domain.UnrecognizedCommand{Text: text}, nil
		}
		amount, err := parseAmount(fields[1])
		if err != nil {
			return nil, err
		}
		return domain.WithdrawCommand{Amount: amount}, nil

	case "invest":
		if len(fields) < 3 {
			return domain.UnrecognizedCommand{Text: text}, nil
		}
		amount, err := parseAmount(fields[1])
		if err != nil {
			return nil, err
		}
		return domain.InvestCommand{Amount: amount, PlanToken: fields[2]}, nil
	}

	return domain.UnrecognizedCommand{Text: text}, nil
}

func parseAmount(token string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(token)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
