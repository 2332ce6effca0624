// Package observability provides a metrics extension for Ledger that records
// lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/coopcore/ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnObligationPosted    = (*MetricsExtension)(nil)
	_ plugin.OnObligationReversed  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded     = (*MetricsExtension)(nil)
	_ plugin.OnCreditLimitBreached = (*MetricsExtension)(nil)
	_ plugin.OnLoanApproved        = (*MetricsExtension)(nil)
	_ plugin.OnLoanDisbursed       = (*MetricsExtension)(nil)
	_ plugin.OnLoanPaymentApplied  = (*MetricsExtension)(nil)
	_ plugin.OnLoanClosed          = (*MetricsExtension)(nil)
	_ plugin.OnPenaltyWaived       = (*MetricsExtension)(nil)
	_ plugin.OnSavingsMovement     = (*MetricsExtension)(nil)
	_ plugin.OnTimeDepositPlaced   = (*MetricsExtension)(nil)
	_ plugin.OnTimeDepositSettled  = (*MetricsExtension)(nil)
	_ plugin.OnAgingReportBuilt    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track posting metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Posting metrics
	ObligationsPosted   Counter
	ObligationsReversed Counter
	PaymentsRecorded    Counter
	PaymentLeftover     Histogram
	CreditLimitBreaches Counter

	// Loan metrics
	LoansApproved       Counter
	LoansDisbursed      Counter
	LoanInstallments    Histogram
	LoanPaymentsApplied Counter
	LoansClosed         Counter
	PenaltiesWaived     Counter

	// Savings metrics
	SavingsMovements   Counter
	TimeDepositsPlaced Counter
	TimeDepositsClosed Counter
	PreTerminations    Counter

	// Reporting metrics
	AgingReportsBuilt  Counter
	AgingReportLatency Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Posting metrics
		ObligationsPosted:   factory.Counter("ledger.obligation.posted"),
		ObligationsReversed: factory.Counter("ledger.obligation.reversed"),
		PaymentsRecorded:    factory.Counter("ledger.payment.recorded"),
		PaymentLeftover:     factory.Histogram("ledger.payment.leftover"),
		CreditLimitBreaches: factory.Counter("ledger.credit_limit.breached"),

		// Loan metrics
		LoansApproved:       factory.Counter("ledger.loan.approved"),
		LoansDisbursed:      factory.Counter("ledger.loan.disbursed"),
		LoanInstallments:    factory.Histogram("ledger.loan.installments"),
		LoanPaymentsApplied: factory.Counter("ledger.loan.payments_applied"),
		LoansClosed:         factory.Counter("ledger.loan.closed"),
		PenaltiesWaived:     factory.Counter("ledger.loan.penalties_waived"),

		// Savings metrics
		SavingsMovements:   factory.Counter("ledger.savings.movements"),
		TimeDepositsPlaced: factory.Counter("ledger.time_deposit.placed"),
		TimeDepositsClosed: factory.Counter("ledger.time_deposit.settled"),
		PreTerminations:    factory.Counter("ledger.time_deposit.pre_terminated"),

		// Reporting metrics
		AgingReportsBuilt:  factory.Counter("ledger.aging.reports"),
		AgingReportLatency: factory.Histogram("ledger.aging.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("ledger.store.errors"),
		PluginErrors: factory.Counter("ledger.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnObligationPosted implements plugin.OnObligationPosted.
func (m *MetricsExtension) OnObligationPosted(_ context.Context, _ interface{}) error {
	m.ObligationsPosted.Inc()
	return nil
}

// OnObligationReversed implements plugin.OnObligationReversed.
func (m *MetricsExtension) OnObligationReversed(_ context.Context, _ interface{}, _ string) error {
	m.ObligationsReversed.Inc()
	return nil
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, _ interface{}, _, leftover int64) error {
	m.PaymentsRecorded.Inc()
	m.PaymentLeftover.Observe(float64(leftover))
	return nil
}

// OnCreditLimitBreached implements plugin.OnCreditLimitBreached.
func (m *MetricsExtension) OnCreditLimitBreached(_ context.Context, _ string, _, _, _ int64) error {
	m.CreditLimitBreaches.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Loan hooks
// ──────────────────────────────────────────────────

// OnLoanApproved implements plugin.OnLoanApproved.
func (m *MetricsExtension) OnLoanApproved(_ context.Context, _ interface{}) error {
	m.LoansApproved.Inc()
	return nil
}

// OnLoanDisbursed implements plugin.OnLoanDisbursed.
func (m *MetricsExtension) OnLoanDisbursed(_ context.Context, _ interface{}, installments int) error {
	m.LoansDisbursed.Inc()
	m.LoanInstallments.Observe(float64(installments))
	return nil
}

// OnLoanPaymentApplied implements plugin.OnLoanPaymentApplied.
func (m *MetricsExtension) OnLoanPaymentApplied(_ context.Context, _, _ interface{}) error {
	m.LoanPaymentsApplied.Inc()
	return nil
}

// OnLoanClosed implements plugin.OnLoanClosed.
func (m *MetricsExtension) OnLoanClosed(_ context.Context, _ interface{}) error {
	m.LoansClosed.Inc()
	return nil
}

// OnPenaltyWaived implements plugin.OnPenaltyWaived.
func (m *MetricsExtension) OnPenaltyWaived(_ context.Context, _ interface{}, _ int64, _ string) error {
	m.PenaltiesWaived.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Savings hooks
// ──────────────────────────────────────────────────

// OnSavingsMovement implements plugin.OnSavingsMovement.
func (m *MetricsExtension) OnSavingsMovement(_ context.Context, _ interface{}) error {
	m.SavingsMovements.Inc()
	return nil
}

// OnTimeDepositPlaced implements plugin.OnTimeDepositPlaced.
func (m *MetricsExtension) OnTimeDepositPlaced(_ context.Context, _ interface{}) error {
	m.TimeDepositsPlaced.Inc()
	return nil
}

// OnTimeDepositSettled implements plugin.OnTimeDepositSettled.
func (m *MetricsExtension) OnTimeDepositSettled(_ context.Context, _ interface{}, preTerminated bool) error {
	m.TimeDepositsClosed.Inc()
	if preTerminated {
		m.PreTerminations.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Reporting hooks
// ──────────────────────────────────────────────────

// OnAgingReportBuilt implements plugin.OnAgingReportBuilt.
func (m *MetricsExtension) OnAgingReportBuilt(_ context.Context, _ interface{}, elapsed time.Duration) error {
	m.AgingReportsBuilt.Inc()
	m.AgingReportLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
