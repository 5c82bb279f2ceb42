/**
 * @description
 * Job implementations for the maturity worker: find investments whose end
 * date has passed, credit the principal back to the owning account, and
 * deactivate them. Each settlement is one atomic repository unit, so a crash
 * mid-run leaves every investment either fully settled or untouched.
 */
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/knightvest/assistant-service/internal/store"
)

// Jobs holds the dependencies for scheduled jobs.
type Jobs struct {
	repo   store.Repository
	logger *slog.Logger
}

// NewJobs creates a new Jobs instance.
func NewJobs(repo store.Repository, logger *slog.Logger) *Jobs {
	return &Jobs{repo: repo, logger: logger}
}

// SettleMaturedInvestments processes every active investment past its end date.
func (j *Jobs) SettleMaturedInvestments() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	matured, err := j.repo.ListMaturedInvestments(ctx)
	if err != nil {
		j.logger.Error("failed to list matured investments", "error", err)
		return
	}
	if len(matured) == 0 {
		j.logger.Info("no matured investments to settle")
		return
	}

	settled := 0
	for _, inv := range matured {
		if err := j.repo.SettleMaturedInvestment(ctx, inv.ID); err != nil {
			if err == store.ErrInvestmentNotFound {
				// Another run got there first; nothing to do.
				continue
			}
			j.logger.Error("failed to settle investment",
				"investment_id", inv.ID, "account_id", inv.AccountID, "error", err)
			continue
		}
		settled++
		j.logger.Info("settled matured investment",
			"investment_id", inv.ID, "account_id", inv.AccountID,
			"plan", inv.PlanName, "amount", inv.Amount.String())
	}
	j.logger.Info("maturity run complete", "matured", len(matured), "settled", settled)
}
