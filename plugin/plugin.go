// Package plugin provides an extensible plugin system for Ledger.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Receivable/payable posting hooks
// ──────────────────────────────────────────────────

// OnObligationPosted is called when a charge is appended to a party ledger.
type OnObligationPosted interface {
	Plugin
	OnObligationPosted(ctx context.Context, obl interface{}) error
}

// OnObligationReversed is called when an obligation is reversed.
type OnObligationReversed interface {
	Plugin
	OnObligationReversed(ctx context.Context, obl interface{}, reason string) error
}

// OnPaymentRecorded is called when a payment is recorded, after its
// allocations are persisted.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, pay interface{}, allocated, leftover int64) error
}

// OnCreditLimitBreached is called when a posting is refused because it
// would push the party past its credit limit.
type OnCreditLimitBreached interface {
	Plugin
	OnCreditLimitBreached(ctx context.Context, partyID string, outstanding, limit, requested int64) error
}

// ──────────────────────────────────────────────────
// Loan lifecycle hooks
// ──────────────────────────────────────────────────

// OnLoanApproved is called when a pending loan is approved.
type OnLoanApproved interface {
	Plugin
	OnLoanApproved(ctx context.Context, acct interface{}) error
}

// OnLoanDisbursed is called when a loan is disbursed and its
// amortization schedule is generated.
type OnLoanDisbursed interface {
	Plugin
	OnLoanDisbursed(ctx context.Context, acct interface{}, installments int) error
}

// OnLoanPaymentApplied is called when a payment is split across
// penalties, interest and principal.
type OnLoanPaymentApplied interface {
	Plugin
	OnLoanPaymentApplied(ctx context.Context, acct interface{}, split interface{}) error
}

// OnLoanClosed is called when a loan reaches a terminal state
// (paid or defaulted).
type OnLoanClosed interface {
	Plugin
	OnLoanClosed(ctx context.Context, acct interface{}) error
}

// OnPenaltyWaived is called when a penalty is waived in part or full.
type OnPenaltyWaived interface {
	Plugin
	OnPenaltyWaived(ctx context.Context, pen interface{}, waived int64, reason string) error
}

// ──────────────────────────────────────────────────
// Savings hooks
// ──────────────────────────────────────────────────

// OnSavingsMovement is called for every deposit, withdrawal or
// interest credit on a savings account.
type OnSavingsMovement interface {
	Plugin
	OnSavingsMovement(ctx context.Context, mov interface{}) error
}

// OnTimeDepositPlaced is called when a time deposit is placed.
type OnTimeDepositPlaced interface {
	Plugin
	OnTimeDepositPlaced(ctx context.Context, dep interface{}) error
}

// OnTimeDepositSettled is called when a time deposit matures or is
// pre-terminated and its payout is credited.
type OnTimeDepositSettled interface {
	Plugin
	OnTimeDepositSettled(ctx context.Context, dep interface{}, preTerminated bool) error
}

// ──────────────────────────────────────────────────
// Reporting hooks
// ──────────────────────────────────────────────────

// OnAgingReportBuilt is called after an aging report is assembled.
type OnAgingReportBuilt interface {
	Plugin
	OnAgingReportBuilt(ctx context.Context, report interface{}, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Allocation strategies
// ──────────────────────────────────────────────────

// AllocationStrategy provides a custom payment allocation order.
// The default engine fills oldest obligations first.
type AllocationStrategy interface {
	Plugin
	StrategyName() string
	// Order returns the obligation IDs in the order allocations should
	// be attempted. Obligations omitted from the result are skipped.
	Order(ctx context.Context, open []interface{}) ([]string, error)
}
