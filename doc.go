// Package ledger provides a composable financial ledger and obligation
// engine for retail and cooperative back offices.
//
// Ledger is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Append-mostly receivable/payable postings with a per-party running
//     balance chain and opening-balance reconstruction
//   - Oldest-due-first payment allocation, with explicit targeting and a
//     configurable overpayment tolerance
//   - Receivables aging into current / 31-60 / 61-90 / over-90 buckets
//   - Diminishing-balance loan amortization with monthly, semi-monthly
//     and weekly intervals, penalties and waivers
//   - Savings accounts with minimum-balance protection, and time deposits
//     with maturity and pre-termination settlement
//   - Share capital subscriptions and restricted-use wallets
//   - Pluggable lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/coopcore/ledger"
//	    "github.com/coopcore/ledger/store/sqlite"
//	)
//
//	store, err := sqlite.Open("file:ledger.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(store)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Parties are the customers and suppliers postings attach to. An
// obligation is a charge against a party; a payment settles obligations
// oldest due date first:
//
//	obl, err := l.PostObligation(ctx, partyID, ledger.PHP(150000), dueDate,
//	    posting.Origin{Kind: posting.OriginSale, Reference: "SI-00042"})
//
//	pay, allocs, err := l.RecordPayment(ctx, partyID, ledger.PaymentInput{
//	    Amount: ledger.PHP(150000),
//	    Method: posting.MethodCash,
//	})
//
// Loans follow a pending, approved, disbursed, active lifecycle; the
// amortization schedule is generated exactly once at disbursement:
//
//	acct, entries, err := l.DisburseLoan(ctx, loanID, time.Now())
//	split, err := l.ApplyLoanPayment(ctx, loanID, ledger.PHP(113500), date)
//
// # Money
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (centavos for PHP). Rates are decimal fractions applied
// with round-half-up; no float ever touches a persisted amount.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	party_01h2xcejqtf2nbrexx3vqjhp41  // Party ID
//	obl_01h2xcejqtf2nbrexx3vqjhp41    // Obligation ID
//	loan_01h455vb4pex5vsknk084sn02q   // Loan ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package ledger
