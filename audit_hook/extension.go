// Package audithook bridges Ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// concrete audit store. Callers inject a RecorderFunc adapter that bridges
// to their trail at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coopcore/ledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnObligationPosted    = (*Extension)(nil)
	_ plugin.OnObligationReversed  = (*Extension)(nil)
	_ plugin.OnPaymentRecorded     = (*Extension)(nil)
	_ plugin.OnCreditLimitBreached = (*Extension)(nil)
	_ plugin.OnLoanApproved        = (*Extension)(nil)
	_ plugin.OnLoanDisbursed       = (*Extension)(nil)
	_ plugin.OnLoanPaymentApplied  = (*Extension)(nil)
	_ plugin.OnLoanClosed          = (*Extension)(nil)
	_ plugin.OnPenaltyWaived       = (*Extension)(nil)
	_ plugin.OnSavingsMovement     = (*Extension)(nil)
	_ plugin.OnTimeDepositPlaced   = (*Extension)(nil)
	_ plugin.OnTimeDepositSettled  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnObligationPosted implements plugin.OnObligationPosted.
func (e *Extension) OnObligationPosted(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionObligationPosted, SeverityInfo, OutcomeSuccess,
		ResourceObligation, "", CategoryReceivable, nil,
		"event", "obligation_posted",
	)
}

// OnObligationReversed implements plugin.OnObligationReversed.
func (e *Extension) OnObligationReversed(ctx context.Context, _ interface{}, reason string) error {
	return e.record(ctx, ActionObligationReversed, SeverityWarning, OutcomeSuccess,
		ResourceObligation, "", CategoryCompliance, nil,
		"event", "obligation_reversed",
		"reversal_reason", reason,
	)
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, _ interface{}, allocated, leftover int64) error {
	outcome := OutcomeSuccess
	if leftover > 0 {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, outcome,
		ResourcePayment, "", CategoryReceivable, nil,
		"event", "payment_recorded",
		"allocated", allocated,
		"leftover", leftover,
	)
}

// OnCreditLimitBreached implements plugin.OnCreditLimitBreached.
func (e *Extension) OnCreditLimitBreached(ctx context.Context, partyID string, outstanding, limit, requested int64) error {
	return e.record(ctx, ActionCreditLimitBreach, SeverityWarning, OutcomeFailure,
		ResourceParty, partyID, CategoryCompliance, nil,
		"party_id", partyID,
		"outstanding", outstanding,
		"limit", limit,
		"requested", requested,
	)
}

// ──────────────────────────────────────────────────
// Loan hooks
// ──────────────────────────────────────────────────

// OnLoanApproved implements plugin.OnLoanApproved.
func (e *Extension) OnLoanApproved(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionLoanApproved, SeverityInfo, OutcomeSuccess,
		ResourceLoan, "", CategoryLending, nil,
		"event", "loan_approved",
	)
}

// OnLoanDisbursed implements plugin.OnLoanDisbursed.
func (e *Extension) OnLoanDisbursed(ctx context.Context, _ interface{}, installments int) error {
	return e.record(ctx, ActionLoanDisbursed, SeverityInfo, OutcomeSuccess,
		ResourceLoan, "", CategoryLending, nil,
		"event", "loan_disbursed",
		"installments", installments,
	)
}

// OnLoanPaymentApplied implements plugin.OnLoanPaymentApplied.
func (e *Extension) OnLoanPaymentApplied(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionLoanPaymentApplied, SeverityInfo, OutcomeSuccess,
		ResourceLoan, "", CategoryLending, nil,
		"event", "loan_payment_applied",
	)
}

// OnLoanClosed implements plugin.OnLoanClosed.
func (e *Extension) OnLoanClosed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionLoanClosed, SeverityInfo, OutcomeSuccess,
		ResourceLoan, "", CategoryLending, nil,
		"event", "loan_closed",
	)
}

// OnPenaltyWaived implements plugin.OnPenaltyWaived.
func (e *Extension) OnPenaltyWaived(ctx context.Context, _ interface{}, waived int64, reason string) error {
	// Waivers are discretionary and always audit-relevant.
	return e.record(ctx, ActionPenaltyWaived, SeverityWarning, OutcomeSuccess,
		ResourcePenalty, "", CategoryCompliance, nil,
		"event", "penalty_waived",
		"waived", waived,
		"waive_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Savings hooks
// ──────────────────────────────────────────────────

// OnSavingsMovement implements plugin.OnSavingsMovement.
func (e *Extension) OnSavingsMovement(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSavingsMovement, SeverityInfo, OutcomeSuccess,
		ResourceSavings, "", CategorySavings, nil,
		"event", "savings_movement",
	)
}

// OnTimeDepositPlaced implements plugin.OnTimeDepositPlaced.
func (e *Extension) OnTimeDepositPlaced(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTimeDepositPlaced, SeverityInfo, OutcomeSuccess,
		ResourceTimeDeposit, "", CategorySavings, nil,
		"event", "time_deposit_placed",
	)
}

// OnTimeDepositSettled implements plugin.OnTimeDepositSettled.
func (e *Extension) OnTimeDepositSettled(ctx context.Context, _ interface{}, preTerminated bool) error {
	severity := SeverityInfo
	if preTerminated {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionTimeDepositSettled, severity, OutcomeSuccess,
		ResourceTimeDeposit, "", CategorySavings, nil,
		"event", "time_deposit_settled",
		"pre_terminated", preTerminated,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
