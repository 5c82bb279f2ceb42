package domain

import "github.com/shopspring/decimal"

// Command is the closed set of instructions the chat router can produce from
// a verified user's message. Exactly one concrete type matches any input, so
// dispatch is a type switch rather than a chain of regex checks.
type Command interface {
	isCommand()
}

// DepositCommand credits the account balance.
type DepositCommand struct {
	Amount decimal.Decimal
}

// WithdrawCommand debits the account balance.
type WithdrawCommand struct {
	Amount decimal.Decimal
}

// InvestCommand moves balance into a named investment plan.
type InvestCommand struct {
	Amount    decimal.Decimal
	PlanToken string
}

// UnrecognizedCommand carries the raw text through to the fallback responder.
type UnrecognizedCommand struct {
	Text string
}

func (DepositCommand) isCommand()      {}
func (WithdrawCommand) isCommand()     {}
func (InvestCommand) isCommand()       {}
func (UnrecognizedCommand) isCommand() {}
