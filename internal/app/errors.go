package app

import (
	"errors"
	"fmt"

	"github.com/knightvest/assistant-service/internal/domain"
)

// Validation and business errors surfaced to the user with specific reply
// text. Infrastructure failures are anything else and get a generic reply.
var ErrInvalidAmount = errors.New("invalid amount")

// BelowMinimumError reports an investment under the plan's minimum. It keeps
// the plan so the reply can state the exact minimum.
type BelowMinimumError struct {
	Plan domain.Plan
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("amount below minimum %s for plan %s", e.Plan.MinInvestment.String(), e.Plan.Name)
}
