package audithook

// Action constants for audit events.
const (
	// Posting actions
	ActionObligationPosted   = "obligation.posted"
	ActionObligationReversed = "obligation.reversed"
	ActionPaymentRecorded    = "payment.recorded"
	ActionCreditLimitBreach  = "credit_limit.breached"

	// Loan actions
	ActionLoanApproved       = "loan.approved"
	ActionLoanDisbursed      = "loan.disbursed"
	ActionLoanPaymentApplied = "loan.payment_applied"
	ActionLoanClosed         = "loan.closed"
	ActionPenaltyWaived      = "penalty.waived"

	// Savings actions
	ActionSavingsMovement    = "savings.movement"
	ActionTimeDepositPlaced  = "time_deposit.placed"
	ActionTimeDepositSettled = "time_deposit.settled"
)

// Resource constants for audit events.
const (
	ResourceObligation  = "obligation"
	ResourcePayment     = "payment"
	ResourceParty       = "party"
	ResourceLoan        = "loan"
	ResourcePenalty     = "penalty"
	ResourceSavings     = "savings_account"
	ResourceTimeDeposit = "time_deposit"
)

// Category constants for audit events.
const (
	CategoryReceivable = "receivable"
	CategoryLending    = "lending"
	CategorySavings    = "savings"
	CategoryCompliance = "compliance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
