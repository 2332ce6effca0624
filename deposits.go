package ledger

import (
	"context"
	"time"

	"github.com/coopcore/ledger/guard"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/savings"
	"github.com/coopcore/ledger/schedule"
	"github.com/coopcore/ledger/types"
)

// OpenSavingsAccount opens an active savings account for the party.
func (l *Ledger) OpenSavingsAccount(ctx context.Context, partyID id.PartyID, tenantID string, minimum types.Money) (*savings.Account, error) {
	acct := &savings.Account{
		Entity:         types.NewEntity(),
		ID:             id.NewSavingsID(),
		PartyID:        partyID,
		TenantID:       tenantID,
		Status:         savings.AccountActive,
		Balance:        types.Zero(minimum.Currency),
		MinimumBalance: minimum,
	}

	if err := l.store.CreateSavings(ctx, acct); err != nil {
		return nil, err
	}

	l.logger.Info("savings account opened",
		"account_id", acct.ID.String(),
		"party_id", partyID.String(),
		"minimum_balance", minimum.String(),
	)
	return acct, nil
}

// Deposit credits cash into a savings account. Deposits into a dormant
// account reactivate it; closed accounts refuse all movements.
func (l *Ledger) Deposit(ctx context.Context, savID id.SavingsID, amount types.Money, reference string, date time.Time) (*savings.Movement, error) {
	if err := guard.CheckPositive(amount); err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, savID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetSavings(ctx, savID)
	if err != nil {
		return nil, err
	}
	if acct.Status == savings.AccountClosed {
		return nil, ErrSavingsClosed
	}

	acct.Balance = acct.Balance.Add(amount)
	acct.Status = savings.AccountActive
	acct.Touch()

	mov := l.newMovement(savID, savings.MovementDeposit, amount, acct.Balance, reference, date)
	if err := l.store.RecordMovement(ctx, acct, mov); err != nil {
		return nil, err
	}

	l.plugins.EmitSavingsMovement(ctx, mov)
	return mov, nil
}

// Withdraw debits cash from a savings account. The withdrawal may not
// take the balance below the account's minimum; closed accounts refuse
// all movements, while dormant accounts may still withdraw.
func (l *Ledger) Withdraw(ctx context.Context, savID id.SavingsID, amount types.Money, reference string, date time.Time) (*savings.Movement, error) {
	unlock, err := l.lockKey(ctx, savID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetSavings(ctx, savID)
	if err != nil {
		return nil, err
	}
	if acct.Status == savings.AccountClosed {
		return nil, ErrSavingsClosed
	}

	if err := guard.CheckWithdrawal(acct, amount); err != nil {
		return nil, err
	}

	acct.Balance = acct.Balance.Subtract(amount)
	acct.Touch()

	mov := l.newMovement(savID, savings.MovementWithdrawal, amount.Negate(), acct.Balance, reference, date)
	if err := l.store.RecordMovement(ctx, acct, mov); err != nil {
		return nil, err
	}

	l.plugins.EmitSavingsMovement(ctx, mov)
	return mov, nil
}

// GetSavings retrieves a savings account by ID.
func (l *Ledger) GetSavings(ctx context.Context, savID id.SavingsID) (*savings.Account, error) {
	return l.store.GetSavings(ctx, savID)
}

// ListMovements lists the account's movement history, newest first.
func (l *Ledger) ListMovements(ctx context.Context, savID id.SavingsID, opts savings.ListOpts) ([]*savings.Movement, error) {
	return l.store.ListMovements(ctx, savID, opts)
}

// ──────────────────────────────────────────────────
// Time deposits
// ──────────────────────────────────────────────────

// PlaceTimeDeposit places principal for a fixed term, linked to a savings
// account for settlement. The terms are validated by generating the
// placement's credit schedule up front.
func (l *Ledger) PlaceTimeDeposit(ctx context.Context, savID id.SavingsID, terms schedule.DepositTerms) (*savings.TimeDeposit, error) {
	if _, err := schedule.Credits(terms); err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, savID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetSavings(ctx, savID)
	if err != nil {
		return nil, err
	}
	if acct.Status == savings.AccountClosed {
		return nil, ErrSavingsClosed
	}

	zero := types.Zero(terms.Principal.Currency)
	dep := &savings.TimeDeposit{
		Entity:         types.NewEntity(),
		ID:             id.NewTimeDepositID(),
		AccountID:      savID,
		PartyID:        acct.PartyID,
		TenantID:       acct.TenantID,
		Status:         savings.DepositActive,
		Terms:          terms,
		Payout:         zero,
		InterestEarned: zero,
	}

	if err := l.store.CreateTimeDeposit(ctx, dep); err != nil {
		return nil, err
	}

	l.logger.Info("time deposit placed",
		"deposit_id", dep.ID.String(),
		"account_id", savID.String(),
		"principal", terms.Principal.String(),
		"term_months", terms.TermMonths,
		"maturity", terms.MaturityDate().Format(time.DateOnly),
	)
	l.plugins.EmitTimeDepositPlaced(ctx, dep)

	return dep, nil
}

// MatureTimeDeposit settles a deposit at or after its maturity date,
// crediting principal plus the full scheduled interest into the linked
// savings account.
func (l *Ledger) MatureTimeDeposit(ctx context.Context, depID id.TimeDepositID, at time.Time) (*savings.TimeDeposit, error) {
	dep, err := l.store.GetTimeDeposit(ctx, depID)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, dep.AccountID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; the first read only located the account.
	dep, err = l.store.GetTimeDeposit(ctx, depID)
	if err != nil {
		return nil, err
	}
	if !dep.Open() {
		return nil, ErrDepositClosed
	}
	if at.Before(dep.Terms.MaturityDate()) {
		return nil, ErrDepositNotMatured
	}

	credits, err := schedule.Credits(dep.Terms)
	if err != nil {
		return nil, err
	}
	interest := types.Zero(dep.Terms.Principal.Currency)
	for _, c := range credits {
		interest = interest.Add(c.Amount)
	}

	dep.Status = savings.DepositMatured
	dep.InterestEarned = interest
	dep.Payout = dep.Terms.Principal.Add(interest)
	dep.ClosedAt = &at
	dep.Touch()

	if err := l.settleDeposit(ctx, dep, at); err != nil {
		return nil, err
	}

	l.plugins.EmitTimeDepositSettled(ctx, dep, false)
	return dep, nil
}

// PreTerminateTimeDeposit settles a deposit early, strictly between
// placement and maturity. The early-withdrawal penalty applies to the
// interest accrued to date only; principal is always returned whole.
func (l *Ledger) PreTerminateTimeDeposit(ctx context.Context, depID id.TimeDepositID, at time.Time) (*savings.TimeDeposit, error) {
	dep, err := l.store.GetTimeDeposit(ctx, depID)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, dep.AccountID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; the first read only located the account.
	dep, err = l.store.GetTimeDeposit(ctx, depID)
	if err != nil {
		return nil, err
	}
	if !dep.Open() {
		return nil, ErrDepositClosed
	}

	pt, err := schedule.PreTerminate(dep.Terms, at)
	if err != nil {
		return nil, err
	}

	dep.Status = savings.DepositPreTerminated
	dep.InterestEarned = pt.Interest
	dep.Payout = pt.Payout
	dep.ClosedAt = &at
	dep.Touch()

	if err := l.settleDeposit(ctx, dep, at); err != nil {
		return nil, err
	}

	l.logger.Warn("time deposit pre-terminated",
		"deposit_id", depID.String(),
		"accrued", pt.Accrued.String(),
		"penalty", pt.Penalty.String(),
		"payout", pt.Payout.String(),
	)
	l.plugins.EmitTimeDepositSettled(ctx, dep, true)
	return dep, nil
}

// settleDeposit credits the deposit's payout into its linked savings
// account as a single movement.
func (l *Ledger) settleDeposit(ctx context.Context, dep *savings.TimeDeposit, at time.Time) error {
	acct, err := l.store.GetSavings(ctx, dep.AccountID)
	if err != nil {
		return err
	}

	acct.Balance = acct.Balance.Add(dep.Payout)
	acct.Status = savings.AccountActive
	acct.Touch()

	mov := l.newMovement(dep.AccountID, savings.MovementDepositPayout, dep.Payout, acct.Balance, dep.ID.String(), at)
	if err := l.store.SettleTimeDeposit(ctx, dep, acct, mov); err != nil {
		return err
	}

	l.plugins.EmitSavingsMovement(ctx, mov)
	return nil
}

// GetTimeDeposit retrieves a time deposit by ID.
func (l *Ledger) GetTimeDeposit(ctx context.Context, depID id.TimeDepositID) (*savings.TimeDeposit, error) {
	return l.store.GetTimeDeposit(ctx, depID)
}

// ListTimeDeposits lists time deposits matching the filter.
func (l *Ledger) ListTimeDeposits(ctx context.Context, opts savings.ListOpts) ([]*savings.TimeDeposit, error) {
	return l.store.ListTimeDeposits(ctx, opts)
}

func (l *Ledger) newMovement(savID id.SavingsID, kind savings.MovementKind, amount, balanceAfter types.Money, reference string, date time.Time) *savings.Movement {
	if date.IsZero() {
		date = l.clock()
	}
	return &savings.Movement{
		Entity:       types.NewEntity(),
		ID:           id.NewMovementID(),
		AccountID:    savID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reference:    reference,
		Date:         date,
	}
}
