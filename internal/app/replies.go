package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/knightvest/assistant-service/internal/domain"
)

// Reply texts sent back over chat. They carry the data the user needs
// (amounts, balances, plan names, dates); presentation beyond that is up to
// the client.
const (
	replyAskEmail = "Hello! Before we continue, please enter your email address. " +
		"This lets me connect to your account on the website."
	replyEmailNotRegistered = "That email is not registered. " +
		"Please use the email you used on the website."
	replyVerified = "Your account is verified! How can I assist you today? " +
		"You can say things like \"deposit 1000\", \"withdraw 500\", " +
		"\"invest 2000 silver\", or ask anything else."
	replyInvalidAmount       = "That amount doesn't look right. Please use a positive number, e.g. \"deposit 500\"."
	replyInsufficientBalance = "You do not have enough balance for that."
	replyTryAgainLater       = "Something went wrong on our side. Please try again later."
)

func replyDeposited(amount, newBalance decimal.Decimal) string {
	return fmt.Sprintf("Deposit of %s confirmed. Your new balance is %s.", amount.String(), newBalance.String())
}

func replyWithdrawn(amount, newBalance decimal.Decimal) string {
	return fmt.Sprintf("Withdrawal of %s completed. New balance: %s.", amount.String(), newBalance.String())
}

func replyInvested(inv *domain.Investment) string {
	return fmt.Sprintf("You invested %s in %s. Your plan ends: %s.",
		inv.Amount.String(), inv.PlanName, inv.EndDate.Format("2006-01-02"))
}

func replyPlanNotFound(planToken string) string {
	return fmt.Sprintf("Plan '%s' not found.", planToken)
}

func replyBelowMinimum(plan domain.Plan) string {
	return fmt.Sprintf("Minimum for %s is %s.", plan.Name, plan.MinInvestment.String())
}
