package ledger

import (
	"context"

	"github.com/coopcore/ledger/guard"
	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/share"
	"github.com/coopcore/ledger/types"
	"github.com/coopcore/ledger/wallet"
)

// OpenShareAccount opens a share capital subscription for the party.
func (l *Ledger) OpenShareAccount(ctx context.Context, partyID id.PartyID, tenantID string, subscribedShares int64, parValue types.Money) (*share.Account, error) {
	if subscribedShares <= 0 {
		return nil, ValidationError{Field: "subscribed_shares", Message: "must be positive"}
	}
	if err := guard.CheckPositive(parValue); err != nil {
		return nil, err
	}

	acct := &share.Account{
		Entity:           types.NewEntity(),
		ID:               id.NewShareID(),
		PartyID:          partyID,
		TenantID:         tenantID,
		SubscribedShares: subscribedShares,
		ParValue:         parValue,
		PaidAmount:       types.Zero(parValue.Currency),
	}

	if err := l.store.CreateShare(ctx, acct); err != nil {
		return nil, err
	}

	l.logger.Info("share account opened",
		"share_id", acct.ID.String(),
		"party_id", partyID.String(),
		"subscribed", subscribedShares,
		"par_value", parValue.String(),
	)
	return acct, nil
}

// PaySubscription applies a payment toward the share subscription. The
// payment may not exceed the unpaid subscription balance; remainders below
// one par value accumulate toward the next paid-up share. Returns the
// account with its updated paid-up share count.
func (l *Ledger) PaySubscription(ctx context.Context, shareID id.ShareID, amount types.Money) (*share.Account, error) {
	unlock, err := l.lockKey(ctx, shareID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := l.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if acct.FullyPaid() {
		return nil, ErrShareFullyPaid
	}

	if err := guard.CheckSharePayment(acct, amount); err != nil {
		return nil, err
	}

	acct.PaidAmount = acct.PaidAmount.Add(amount)
	acct.Touch()
	if err := l.store.UpdateShare(ctx, acct); err != nil {
		return nil, err
	}

	l.logger.Info("share subscription payment",
		"share_id", shareID.String(),
		"amount", amount.String(),
		"paid_up_shares", acct.PaidUpShares(),
		"fully_paid", acct.FullyPaid(),
	)
	return acct, nil
}

// GetShare retrieves a share account by ID.
func (l *Ledger) GetShare(ctx context.Context, shareID id.ShareID) (*share.Account, error) {
	return l.store.GetShare(ctx, shareID)
}

// ListShares lists share accounts matching the filter.
func (l *Ledger) ListShares(ctx context.Context, opts share.ListOpts) ([]*share.Account, error) {
	return l.store.ListShares(ctx, opts)
}

// ──────────────────────────────────────────────────
// Restricted-use wallets
// ──────────────────────────────────────────────────

// CreateWallet opens a restricted-use wallet limited to the given
// purchase categories.
func (l *Ledger) CreateWallet(ctx context.Context, partyID id.PartyID, tenantID, name string, categories []string, opening types.Money) (*wallet.Wallet, error) {
	if opening.IsNegative() {
		return nil, ValidationError{Field: "opening", Message: "opening balance cannot be negative"}
	}

	w := &wallet.Wallet{
		Entity:            types.NewEntity(),
		ID:                id.NewWalletID(),
		PartyID:           partyID,
		TenantID:          tenantID,
		Name:              name,
		Balance:           opening,
		AllowedCategories: categories,
	}

	if err := l.store.CreateWallet(ctx, w); err != nil {
		return nil, err
	}

	l.logger.Info("wallet created",
		"wallet_id", w.ID.String(),
		"party_id", partyID.String(),
		"name", name,
		"categories", categories,
	)
	return w, nil
}

// FundWallet tops up a wallet's balance.
func (l *Ledger) FundWallet(ctx context.Context, walletID id.WalletID, amount types.Money) (*wallet.Wallet, error) {
	if err := guard.CheckPositive(amount); err != nil {
		return nil, err
	}

	unlock, err := l.lockKey(ctx, walletID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := l.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	w.Balance = w.Balance.Add(amount)
	w.Touch()
	if err := l.store.UpdateWallet(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ChargeWallet debits a purchase of the named product from the wallet.
// The category check runs before the balance check: a disallowed purchase
// is refused even when the balance would cover it, the refusal names the
// wallet, the product and the category, and a rejected charge writes
// nothing.
func (l *Ledger) ChargeWallet(ctx context.Context, walletID id.WalletID, product, category string, amount types.Money, reference string) (*wallet.Wallet, error) {
	unlock, err := l.lockKey(ctx, walletID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := l.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	if err := guard.CheckWalletCharge(w, product, category, amount); err != nil {
		return nil, err
	}

	w.Balance = w.Balance.Subtract(amount)
	w.Touch()
	if err := l.store.UpdateWallet(ctx, w); err != nil {
		return nil, err
	}

	l.logger.Info("wallet charged",
		"wallet_id", walletID.String(),
		"product", product,
		"category", category,
		"amount", amount.String(),
		"reference", reference,
		"balance", w.Balance.String(),
	)
	return w, nil
}

// GetWallet retrieves a wallet by ID.
func (l *Ledger) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	return l.store.GetWallet(ctx, walletID)
}

// ListWallets lists wallets matching the filter.
func (l *Ledger) ListWallets(ctx context.Context, opts wallet.ListOpts) ([]*wallet.Wallet, error) {
	return l.store.ListWallets(ctx, opts)
}
